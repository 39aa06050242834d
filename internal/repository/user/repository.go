package user

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

// Repository persists and fetches users.
type Repository interface {
	Create(ctx context.Context, q db.Querier, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, q db.Querier, email string) (*domain.User, error)
	GetByID(ctx context.Context, q db.Querier, id string) (*domain.User, error)
}
