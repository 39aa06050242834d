package payment

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

type Repository interface {
	GetByOrder(ctx context.Context, q db.Querier, orderID string) (*domain.Payment, error)
	Create(ctx context.Context, q db.Querier, orderID string, method domain.PaymentMethod) (*domain.Payment, error)
	UpdateMethod(ctx context.Context, q db.Querier, id string, method domain.PaymentMethod) (*domain.Payment, error)
	// MarkCompleted flips a pending payment to completed and reports whether it did.
	MarkCompleted(ctx context.Context, q db.Querier, id string) (bool, error)
}
