package repository

import (
	"context"
	"time"

	"credential-auth-service/internal/session/domain"
)

// Repository defines persistence for refresh-token sessions.
//
// Lookups return (nil, nil) for missing rows. Rotate is a compare-and-swap:
// the update applies only while the stored token hash still equals oldTokenHash,
// so two concurrent rotations of the same token produce exactly one winner.
type Repository interface {
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Rotate swaps the stored (encrypted) token, hash, and expiry for the
	// lineage, guarded by oldTokenHash. Returns false when no row matched.
	Rotate(ctx context.Context, sessionID, oldTokenHash, encryptedToken, newTokenHash string, expiresAt time.Time) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeAllByAccount(ctx context.Context, accountID int64) error
	Delete(ctx context.Context, sessionID string) error
}
