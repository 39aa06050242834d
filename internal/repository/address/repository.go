package address

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type Repository interface {
	Get(ctx context.Context, q db.Querier, id string) (*domain.Address, error)
	Create(ctx context.Context, q db.Querier, a domain.Address) (*domain.Address, error)
	// Update rewrites the address fields in place, keeping its id.
	Update(ctx context.Context, q db.Querier, a domain.Address) (*domain.Address, error)
}
