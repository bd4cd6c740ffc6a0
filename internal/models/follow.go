package models

import "time"

// Follow is a directed edge: UserFollowingID follows UserBeingFollowedID.
// The composite primary key keeps each ordered pair unique.
type Follow struct {
	UserBeingFollowedID uint      `gorm:"primaryKey;autoIncrement:false" json:"user_being_followed_id"`
	UserFollowingID     uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_following_id"`
	CreatedAt           time.Time `json:"created_at"`
}
