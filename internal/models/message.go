package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxMessageLength is the longest message text accepted, in characters.
const MaxMessageLength = 140

// Message is a short post ("warble") owned by exactly one user.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate stamps the message with the insertion time unless one was set.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}

// GetUserID returns the author's id.
func (m *Message) GetUserID() uint {
	return m.UserID
}

// Ownable is a resource that belongs to one user.
type Ownable interface {
	GetUserID() uint
}

// OwnedBy reports whether userID owns r. Anonymous callers own nothing.
func OwnedBy(r Ownable, userID uint) bool {
	return userID != 0 && r.GetUserID() == userID
}
