package domain

import "time"

// Session is the durable anchor of a refresh-token lineage. SessionID stays
// fixed across rotations while RefreshToken/TokenHash/ExpiresAt are swapped
// on each rotation. Revoked is monotonic: once true it never reverts.
type Session struct {
	ID           int64
	SessionID    string // opaque lineage id (UUID), immutable
	AccountID    int64
	RefreshToken string // current refresh token, encrypted at rest
	TokenHash    string // SHA-256 hash of the current raw token; lookup and rotation-binding key
	ExpiresAt    time.Time
	Revoked      bool
	CreatedAt    time.Time
}
