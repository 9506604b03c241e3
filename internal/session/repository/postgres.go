package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"credential-auth-service/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, session_id, account_id, refresh_token, token_hash, expires_at, revoked, created_at`

// GetBySessionID returns the session for the lineage id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1`, sessionID)
	return scanSession(row)
}

// GetByTokenHash returns the session whose current token hash matches, or nil if not found.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token_hash = $1`, tokenHash)
	return scanSession(row)
}

// ListByAccount returns all sessions for the given account. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID int64) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 ORDER BY created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the session and assigns its generated id.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (session_id, account_id, refresh_token, token_hash, expires_at, revoked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		s.SessionID, s.AccountID, s.RefreshToken, s.TokenHash, s.ExpiresAt, s.Revoked, s.CreatedAt,
	).Scan(&s.ID)
}

// Rotate swaps the stored token, hash, and expiry for the lineage in a single
// conditional update guarded by the previous token hash. Returns false when
// the guard did not match (already rotated, revoked elsewhere, or missing).
func (r *PostgresRepository) Rotate(ctx context.Context, sessionID, oldTokenHash, encryptedToken, newTokenHash string, expiresAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET refresh_token = $3, token_hash = $4, expires_at = $5
		 WHERE session_id = $1 AND token_hash = $2 AND NOT revoked`,
		sessionID, oldTokenHash, encryptedToken, newTokenHash, expiresAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke marks the session with the given lineage id as revoked.
func (r *PostgresRepository) Revoke(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = TRUE WHERE session_id = $1`, sessionID)
	return err
}

// RevokeAllByAccount revokes every session owned by the account.
func (r *PostgresRepository) RevokeAllByAccount(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = TRUE WHERE account_id = $1`, accountID)
	return err
}

// Delete hard-deletes the session row for the lineage id. Used by the
// expired-replay purge path; deleting an absent row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = $1`, sessionID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.SessionID, &s.AccountID, &s.RefreshToken, &s.TokenHash,
		&s.ExpiresAt, &s.Revoked, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
