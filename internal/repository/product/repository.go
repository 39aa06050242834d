package product

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

// ListFilter narrows product listings. Empty fields match everything.
type ListFilter struct {
	Category string
	SellerID string
	Limit    int
	Offset   int
}

type Repository interface {
	List(ctx context.Context, q db.Querier, f ListFilter) ([]domain.Product, error)
	Get(ctx context.Context, q db.Querier, id string) (*domain.Product, error)
	Create(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, q db.Querier, id string) error
	// Upsert inserts or replaces the seller's product with the same name.
	Upsert(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error)
	// DecrementStock subtracts qty from the product's quantity without a floor check.
	DecrementStock(ctx context.Context, q db.Querier, id string, qty int) error
}
