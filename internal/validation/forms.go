package validation

import "strings"

// SignupForm is the payload of the signup page.
type SignupForm struct {
	Username string `form:"username" json:"username" validate:"required,username"`
	Email    string `form:"email" json:"email" validate:"required,email,max=254"`
	Password string `form:"password" json:"password" validate:"required,min=6,max=72"`
	ImageURL string `form:"image_url" json:"image_url" validate:"omitempty,url"`
}

// LoginForm is the payload of the login page and the API token endpoint.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// MessageForm is the payload for a new message.
type MessageForm struct {
	Text string `form:"text" json:"text" validate:"nonblank,max=140"`
}

// Normalize trims surrounding whitespace so the length limit applies to the
// text that is stored.
func (f *MessageForm) Normalize() {
	f.Text = strings.TrimSpace(f.Text)
}

// ProfileForm edits the current user's profile. Password confirms the change.
type ProfileForm struct {
	Username       string `form:"username" validate:"omitempty,username"`
	Email          string `form:"email" validate:"omitempty,email,max=254"`
	ImageURL       string `form:"image_url" validate:"omitempty,url"`
	HeaderImageURL string `form:"header_image_url" validate:"omitempty,url"`
	Bio            string `form:"bio" validate:"max=500"`
	Location       string `form:"location" validate:"max=100"`
	Password       string `form:"password" validate:"required"`
}
