package category

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context, q db.Querier) ([]domain.Category, error)
	Create(ctx context.Context, q db.Querier, name string) (*domain.Category, error)
	// GetOrCreate returns the category with the given name, creating it if needed.
	GetOrCreate(ctx context.Context, q db.Querier, name string) (*domain.Category, error)
}
