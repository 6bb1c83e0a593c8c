// Package users declares the server-side repository contract for user
// accounts and its PostgreSQL implementation.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/server/models"
)

// Repository defines persistence operations on user accounts. Lookups return
// common.ErrorNotFound when no row matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// IncrementFailedAttempts bumps the failed login counter and returns the
	// new value.
	IncrementFailedAttempts(ctx context.Context, id string, now time.Time) (int, error)
	// Lock marks the account locked until the given instant.
	Lock(ctx context.Context, id string, until time.Time, now time.Time) error
	// ResetFailedAttempts zeroes the counter and lifts any lock.
	ResetFailedAttempts(ctx context.Context, id string, now time.Time) error
	UpdateLastLogin(ctx context.Context, id string, now time.Time) error
	UpdatePassword(ctx context.Context, id string, hash string, now time.Time) error
}
