package models

import (
	"time"

	"github.com/google/uuid"
)

// User holds the credentials of an account. Public identity lives in Profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Needs2FAVerify returns true if the user enrolled in 2FA and must present
// a TOTP code after the password step.
func (u *User) Needs2FAVerify() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil
}
