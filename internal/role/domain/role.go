package domain

import "time"

// Role is reference data looked up by name on sign-up. Role management
// itself lives outside this service.
type Role struct {
	ID        int64
	Name      string // stable enum-style name, e.g. "USER", "ADMIN"
	CreatedAt time.Time
}
