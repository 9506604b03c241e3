package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"credential-auth-service/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, uuid, username, email, first_name, last_name, password_hash,
	role_id, failed_attempts, locked_at, birth_date, last_login_at, created_at, updated_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByUsername returns the account with the given username, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// ExistsByEmail reports whether an account with the given email exists.
func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// ExistsByUsername reports whether an account with the given username exists.
func (r *PostgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// Create persists the account and assigns its generated id.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (uuid, username, email, first_name, last_name, password_hash,
			role_id, failed_attempts, locked_at, birth_date, last_login_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		a.UUID, a.Username, a.Email, a.FirstName, a.LastName, a.PasswordHash,
		a.RoleID, a.FailedAttempts, timeToNullTime(a.LockedAt), a.BirthDate,
		a.LastLoginAt, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

// RecordFailure increments failed_attempts and conditionally sets locked_at in
// one statement, so concurrent failures never lose an increment. Returns the
// new counter and lock timestamp as stored.
func (r *PostgresRepository) RecordFailure(ctx context.Context, id int64, threshold int, lockAt time.Time) (int, *time.Time, error) {
	var attempts int
	var lockedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`UPDATE accounts
		 SET failed_attempts = failed_attempts + 1,
		     locked_at = CASE
		         WHEN failed_attempts + 1 >= $2 AND locked_at IS NULL THEN $3
		         ELSE locked_at
		     END,
		     updated_at = $3
		 WHERE id = $1
		 RETURNING failed_attempts, locked_at`,
		id, threshold, lockAt,
	).Scan(&attempts, &lockedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, nil
		}
		return 0, nil, err
	}
	return attempts, nullTimeToPtr(lockedAt), nil
}

// ResetLockout zeroes failed_attempts and clears locked_at.
func (r *PostgresRepository) ResetLockout(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET failed_attempts = 0, locked_at = NULL, updated_at = $2
		 WHERE id = $1`,
		id, time.Now().UTC())
	return err
}

// UpdateLastLogin sets the account's last-login timestamp.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = $2, updated_at = $2 WHERE id = $1`,
		id, at)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var lockedAt sql.NullTime
	err := row.Scan(&a.ID, &a.UUID, &a.Username, &a.Email, &a.FirstName, &a.LastName,
		&a.PasswordHash, &a.RoleID, &a.FailedAttempts, &lockedAt, &a.BirthDate,
		&a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.LockedAt = nullTimeToPtr(lockedAt)
	return &a, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
