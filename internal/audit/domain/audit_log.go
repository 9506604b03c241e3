package domain

import "time"

// AuditLog represents one audit event. Username is the acting subject; for
// unauthenticated events (failed sign-in, malformed token) it is the
// attempted username or the anonymous sentinel.
type AuditLog struct {
	ID        string
	Username  string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
