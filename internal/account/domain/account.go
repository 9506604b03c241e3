package domain

import (
	"errors"
	"time"
)

// Account is the core user record, including the authentication state the
// lockout policy operates on. LockedAt is set only once FailedAttempts has
// reached the configured threshold; both reset together on unlock.
type Account struct {
	ID             int64
	UUID           string
	Username       string
	Email          string
	FirstName      string
	LastName       string
	PasswordHash   string
	RoleID         int64
	FailedAttempts int
	LockedAt       *time.Time // nil when not locked
	BirthDate      time.Time
	LastLoginAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if a.Username == "" {
		return errors.New("username is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if a.RoleID == 0 {
		return errors.New("role is required")
	}
	if a.FailedAttempts < 0 {
		return errors.New("failed attempts must not be negative")
	}
	return nil
}

// Locked reports whether the account currently carries a lock timestamp.
func (a *Account) Locked() bool {
	return a.LockedAt != nil
}
