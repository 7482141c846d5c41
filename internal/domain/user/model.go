package user

import (
	"time"

	"github.com/caretrack/caretrack/internal/platform/pipeline"
)

// User is a staff account. The password hash and activation code never
// leave the server; Photo holds a blobstore object name, never image bytes.
type User struct {
	ID             int64         `db:"id" json:"id"`
	Email          string        `db:"email" json:"email"`
	PasswordHash   string        `db:"password_hash" json:"-"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	Phone          string        `db:"phone" json:"phone,omitempty"`
	Tier           pipeline.Tier `db:"tier" json:"tier"`
	Photo          string        `db:"photo" json:"photo,omitempty"`
	Active         bool          `db:"active" json:"active"`
	ActivationCode string        `db:"activation_code" json:"-"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// CreatePayload is the body accepted when registering an account. Tier is
// a pointer so an absent field defaults to caregiver rather than to the
// zero value, which is the administrator tier.
type CreatePayload struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Tier      *int   `json:"tier" validate:"omitempty,min=0,max=2"`
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned by login and renewal. ExpiresAt mirrors the
// expiry baked into the token so clients can renew proactively.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
