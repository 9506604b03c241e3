package audit

import (
	"context"
	"sync"
	"testing"

	"credential-auth-service/internal/audit/domain"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (m *memAuditRepo) GetByID(_ context.Context, id string) (*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *memAuditRepo) ListByUsername(_ context.Context, username string, limit, offset int32) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for _, e := range m.entries {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memAuditRepo) Create(_ context.Context, a *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, a)
	return nil
}

func TestLoggerWritesEntry(t *testing.T) {
	repo := &memAuditRepo{}
	logger := NewLogger(repo, func(context.Context) string { return "10.0.0.1" })

	logger.LogEvent(context.Background(), "alice", "login", "session", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Username != "alice" || e.Action != "login" || e.Resource != "session" || e.IP != "10.0.0.1" {
		t.Errorf("entry = %+v", e)
	}
	if e.ID == "" {
		t.Error("entry has no id")
	}
}

func TestLoggerAnonymousSentinel(t *testing.T) {
	repo := &memAuditRepo{}
	logger := NewLogger(repo, nil)

	logger.LogEvent(context.Background(), "", "login_failure", "account", "")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].Username != SentinelUsername {
		t.Errorf("username = %q, want %q", repo.entries[0].Username, SentinelUsername)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLoggerNilRepoNoop(t *testing.T) {
	logger := NewLogger(nil, nil)
	logger.LogEvent(context.Background(), "alice", "login", "session", "")
}
