package cart

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

// Repository stores one cart per user and its items. Item reads join the
// product so prices and stock are always current.
type Repository interface {
	// GetOrCreate returns the user's cart, creating an empty one if needed.
	GetOrCreate(ctx context.Context, q db.Querier, userID string) (*domain.Cart, error)
	ListItems(ctx context.Context, q db.Querier, userID string) ([]domain.CartItem, error)
	GetItem(ctx context.Context, q db.Querier, cartID, itemID string) (*domain.CartItem, error)
	// AddItem returns domain.ErrAlreadyExists when the product is already in the cart.
	AddItem(ctx context.Context, q db.Querier, cartID, productID string, quantity int) (*domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, q db.Querier, cartID, itemID string, quantity int) error
	DeleteItem(ctx context.Context, q db.Querier, cartID, itemID string) error
}
