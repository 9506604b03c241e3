// Package lockout implements the per-account failed-attempt counter and
// time-boxed lock state consulted on every sign-in.
package lockout

import (
	"context"
	"time"

	"credential-auth-service/internal/account/domain"
)

// State is the lock state reported by Check.
type State int

const (
	Unlocked State = iota
	Locked
)

// AccountStore is the minimal account persistence needed by the policy.
type AccountStore interface {
	RecordFailure(ctx context.Context, id int64, threshold int, lockAt time.Time) (int, *time.Time, error)
	ResetLockout(ctx context.Context, id int64) error
}

// Policy tracks consecutive sign-in failures and locks an account for a fixed
// window once the threshold is reached. The window is compared against wall
// clock; expiry is detected lazily on the next Check.
type Policy struct {
	store        AccountStore
	maxAttempts  int
	lockDuration time.Duration
	now          func() time.Time
}

// NewPolicy returns a Policy with the given threshold and lock window.
func NewPolicy(store AccountStore, maxAttempts int, lockDuration time.Duration) *Policy {
	return &Policy{
		store:        store,
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
		now:          time.Now,
	}
}

// SetClock overrides the policy's clock. Tests only.
func (p *Policy) SetClock(now func() time.Time) { p.now = now }

// Check reports the account's lock state and performs the two lazy
// transitions: stamping a lock whose threshold was crossed but never
// recorded, and auto-unlocking once the lock window has elapsed.
// The account's counters are updated in place alongside the store.
//
// Stamping the lock records one more failed attempt, so the stored
// counter ends one past the threshold on this path.
func (p *Policy) Check(ctx context.Context, acct *domain.Account) (State, error) {
	if acct.FailedAttempts < p.maxAttempts {
		return Unlocked, nil
	}
	if acct.LockedAt == nil {
		attempts, lockedAt, err := p.store.RecordFailure(ctx, acct.ID, p.maxAttempts, p.now().UTC())
		if err != nil {
			return Locked, err
		}
		acct.FailedAttempts = attempts
		acct.LockedAt = lockedAt
		return Locked, nil
	}
	if p.now().Before(acct.LockedAt.Add(p.lockDuration)) {
		return Locked, nil
	}
	if err := p.store.ResetLockout(ctx, acct.ID); err != nil {
		return Locked, err
	}
	acct.FailedAttempts = 0
	acct.LockedAt = nil
	return Unlocked, nil
}

// RecordFailure adds one failed attempt; the store sets the lock timestamp
// atomically when the new value reaches the threshold.
func (p *Policy) RecordFailure(ctx context.Context, acct *domain.Account) error {
	attempts, lockedAt, err := p.store.RecordFailure(ctx, acct.ID, p.maxAttempts, p.now().UTC())
	if err != nil {
		return err
	}
	acct.FailedAttempts = attempts
	acct.LockedAt = lockedAt
	return nil
}

// RecordSuccess resets the counter and clears any lock.
func (p *Policy) RecordSuccess(ctx context.Context, acct *domain.Account) error {
	if err := p.store.ResetLockout(ctx, acct.ID); err != nil {
		return err
	}
	acct.FailedAttempts = 0
	acct.LockedAt = nil
	return nil
}
