// Package models holds the auth server's persisted records.
package models

import "time"

type User struct {
	ID                  string
	Username            string
	PasswordHash        string
	DisplayName         string
	Phone               string
	Email               string
	Role                string
	IsActive            bool
	IsLocked            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LockActive reports whether the account is locked at now.
func (u *User) LockActive(now time.Time) bool {
	return u.IsLocked && u.LockedUntil != nil && u.LockedUntil.After(now)
}
