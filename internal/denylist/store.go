// Package denylist tracks access tokens invalidated before their natural
// expiry. Entries live in Redis with a TTL equal to the token's remaining
// lifetime, so the set garbage-collects itself.
package denylist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"credential-auth-service/internal/security"
)

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("denylist: redis unavailable")

const keyPrefix = "denylist:"

// Store is the revocation denylist. Add is called by the sign-out handlers;
// the request-time gate only calls Contains.
type Store struct {
	redis *redis.Client
	now   func() time.Time
}

// NewStore returns a Store backed by the given Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{redis: client, now: time.Now}
}

// SetClock overrides the store's clock. Tests only.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Keys are the SHA-256 of the token string: the token itself is the logical
// primary key, hashing just bounds the key size.
func (s *Store) key(token string) string {
	return keyPrefix + security.HashRefreshToken(token)
}

// Add denies the token until expiresAt, recording the owning account id.
// A token already past expiry is not stored; its natural expiry covers it.
func (s *Store) Add(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(token), strconv.FormatInt(accountID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Contains reports whether the token is currently denied.
func (s *Store) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
