package denylist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb), mr
}

func TestStore_AddAndContains(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token := "some.access.token"
	if err := store.Add(ctx, token, 42, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	denied, err := store.Contains(ctx, token)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !denied {
		t.Error("token should be denied after Add")
	}

	denied, err = store.Contains(ctx, "another.token")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if denied {
		t.Error("unknown token should not be denied")
	}
}

func TestStore_EntryExpiresWithToken(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token := "short.lived.token"
	if err := store.Add(ctx, token, 1, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	denied, err := store.Contains(ctx, token)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if denied {
		t.Error("entry should be garbage-collected once the token has expired")
	}
}

func TestStore_AddAlreadyExpiredToken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token := "already.expired"
	if err := store.Add(ctx, token, 1, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	denied, err := store.Contains(ctx, token)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if denied {
		t.Error("an already-expired token needs no denylist entry")
	}
}

func TestStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb)
	mr.Close()

	if err := store.Add(context.Background(), "t", 1, time.Now().Add(time.Hour)); err == nil {
		t.Error("Add should surface redis unavailability")
	}
	if _, err := store.Contains(context.Background(), "t"); err == nil {
		t.Error("Contains should surface redis unavailability")
	}
}
