package lockout

import (
	"context"
	"sync"
	"testing"
	"time"

	"credential-auth-service/internal/account/domain"
)

type memAccountStore struct {
	mu       sync.Mutex
	attempts map[int64]int
	lockedAt map[int64]*time.Time
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{attempts: map[int64]int{}, lockedAt: map[int64]*time.Time{}}
}

func (s *memAccountStore) RecordFailure(ctx context.Context, id int64, threshold int, lockAt time.Time) (int, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[id]++
	if s.attempts[id] >= threshold && s.lockedAt[id] == nil {
		t := lockAt
		s.lockedAt[id] = &t
	}
	return s.attempts[id], s.lockedAt[id], nil
}

func (s *memAccountStore) ResetLockout(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[id] = 0
	s.lockedAt[id] = nil
	return nil
}

func TestCheck_BelowThresholdStaysUnlocked(t *testing.T) {
	store := newMemAccountStore()
	p := NewPolicy(store, 5, 120*time.Minute)
	acct := &domain.Account{ID: 1, FailedAttempts: 4}

	state, err := p.Check(context.Background(), acct)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state != Unlocked {
		t.Error("4 of 5 attempts should report Unlocked")
	}
	// Below-threshold checks must not touch the counter.
	if acct.FailedAttempts != 4 {
		t.Errorf("FailedAttempts = %d, want 4", acct.FailedAttempts)
	}
	if store.attempts[1] != 0 {
		t.Errorf("store should be untouched, got %d recorded attempts", store.attempts[1])
	}
}

func TestCheck_ThresholdCrossedStampsLock(t *testing.T) {
	store := newMemAccountStore()
	store.attempts[1] = 5
	p := NewPolicy(store, 5, 120*time.Minute)
	acct := &domain.Account{ID: 1, FailedAttempts: 5}

	state, err := p.Check(context.Background(), acct)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state != Locked {
		t.Error("threshold crossed should report Locked")
	}
	if acct.LockedAt == nil {
		t.Fatal("LockedAt should be stamped")
	}
	// Stamping records one more attempt (reference behaviour).
	if acct.FailedAttempts != 6 {
		t.Errorf("FailedAttempts = %d, want 6", acct.FailedAttempts)
	}
}

func TestCheck_LockedWithinWindow(t *testing.T) {
	store := newMemAccountStore()
	p := NewPolicy(store, 5, 120*time.Minute)
	lockedAt := time.Now().Add(-30 * time.Minute)
	acct := &domain.Account{ID: 1, FailedAttempts: 5, LockedAt: &lockedAt}

	state, err := p.Check(context.Background(), acct)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state != Locked {
		t.Error("lock window not elapsed; should report Locked")
	}
	if acct.LockedAt == nil {
		t.Error("LockedAt should be preserved inside the window")
	}
}

func TestCheck_AutoUnlockAfterWindow(t *testing.T) {
	store := newMemAccountStore()
	store.attempts[1] = 5
	p := NewPolicy(store, 5, 120*time.Minute)

	lockedAt := time.Now()
	acct := &domain.Account{ID: 1, FailedAttempts: 5, LockedAt: &lockedAt}

	// 121 minutes later the lock has expired.
	p.SetClock(func() time.Time { return time.Now().Add(121 * time.Minute) })

	state, err := p.Check(context.Background(), acct)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if state != Unlocked {
		t.Error("elapsed lock should report Unlocked")
	}
	if acct.FailedAttempts != 0 || acct.LockedAt != nil {
		t.Errorf("counters should reset together, got attempts=%d lockedAt=%v", acct.FailedAttempts, acct.LockedAt)
	}
	if store.attempts[1] != 0 || store.lockedAt[1] != nil {
		t.Error("reset must be persisted")
	}
}

func TestRecordFailure_LocksAtThreshold(t *testing.T) {
	store := newMemAccountStore()
	p := NewPolicy(store, 3, time.Hour)
	acct := &domain.Account{ID: 7}

	for i := 1; i <= 2; i++ {
		if err := p.RecordFailure(context.Background(), acct); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
		if acct.LockedAt != nil {
			t.Fatalf("locked after %d of 3 failures", i)
		}
	}
	if err := p.RecordFailure(context.Background(), acct); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if acct.FailedAttempts != 3 {
		t.Errorf("FailedAttempts = %d, want 3", acct.FailedAttempts)
	}
	if acct.LockedAt == nil {
		t.Error("third failure should set the lock")
	}
}

func TestRecordFailure_ConcurrentIncrementsAreNotLost(t *testing.T) {
	store := newMemAccountStore()
	p := NewPolicy(store, 100, time.Hour)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acct := &domain.Account{ID: 9}
			_ = p.RecordFailure(context.Background(), acct)
		}()
	}
	wg.Wait()

	if store.attempts[9] != workers {
		t.Errorf("recorded attempts = %d, want %d", store.attempts[9], workers)
	}
}

func TestRecordSuccess_ResetsBoth(t *testing.T) {
	store := newMemAccountStore()
	store.attempts[2] = 4
	p := NewPolicy(store, 5, time.Hour)
	lockedAt := time.Now()
	acct := &domain.Account{ID: 2, FailedAttempts: 4, LockedAt: &lockedAt}

	if err := p.RecordSuccess(context.Background(), acct); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}
	if acct.FailedAttempts != 0 || acct.LockedAt != nil {
		t.Error("RecordSuccess should reset both counters")
	}
	if store.attempts[2] != 0 {
		t.Error("reset must be persisted")
	}
}
