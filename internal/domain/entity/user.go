package entity

import (
	"time"
)

// User is the aggregate root for the account domain. PasswordHash and
// RefreshToken hold bcrypt hashes and must never leave the service boundary;
// handlers serialize Profile instead.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	RefreshToken    string // bcrypt hash of the current refresh token, "" when logged out
	OTPCode         string // transient, "" when no code is pending
	FirstName       string
	LastName        string
	Role            string
	IsOnline        bool
	IsEmailVerified bool
	Verified        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Profile is the client-facing projection of a User. It has no field for
// either secret, so redaction holds by construction.
type Profile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Role            string    `json:"role"`
	IsOnline        bool      `json:"is_online"`
	IsEmailVerified bool      `json:"is_email_verified"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AsProfile strips credentials from the record.
func (u *User) AsProfile() Profile {
	return Profile{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		IsOnline:        u.IsOnline,
		IsEmailVerified: u.IsEmailVerified,
		Verified:        u.Verified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
