package repository

import (
	"context"
	"time"

	"credential-auth-service/internal/account/domain"
)

// Repository defines persistence for accounts.
//
// Lookups return (nil, nil) for missing rows; errors are reserved for store
// failures. RecordFailure is atomic against concurrent sign-in failures: the
// increment and conditional lock happen in a single statement.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, a *domain.Account) error
	// RecordFailure increments failed_attempts by one and sets locked_at to
	// lockAt when the new value reaches threshold and no lock is present.
	// Returns the new counter and lock timestamp.
	RecordFailure(ctx context.Context, id int64, threshold int, lockAt time.Time) (int, *time.Time, error)
	// ResetLockout zeroes failed_attempts and clears locked_at.
	ResetLockout(ctx context.Context, id int64) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}
