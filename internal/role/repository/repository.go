package repository

import (
	"context"

	"credential-auth-service/internal/role/domain"
)

// Repository defines persistence for roles. Lookups return (nil, nil) for
// missing rows; errors are reserved for store failures.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
}
