package order

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"
)

// NewItem is an order line staged for bulk insert.
type NewItem struct {
	ProductID string
	Quantity  int
}

// Repository is the data-access object for orders and their items. Reads
// return order headers; items are loaded separately and join the product
// for current price and stock.
type Repository interface {
	// FindOrCreatePending returns the buyer's pending order, creating it when
	// none exists. created reports whether a new row was inserted.
	FindOrCreatePending(ctx context.Context, q db.Querier, buyerID string) (o *domain.Order, created bool, err error)
	Get(ctx context.Context, q db.Querier, id string) (*domain.Order, error)
	// GetForUpdate reads the order and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, q db.Querier, id string) (*domain.Order, error)
	ListByBuyer(ctx context.Context, q db.Querier, buyerID string, status *domain.OrderStatus) ([]domain.Order, error)
	Items(ctx context.Context, q db.Querier, orderID string) ([]domain.OrderItem, error)
	ItemsForOrders(ctx context.Context, q db.Querier, orderIDs []string) (map[string][]domain.OrderItem, error)
	InsertItems(ctx context.Context, q db.Querier, orderID string, items []NewItem) error
	UpdateItemQuantity(ctx context.Context, q db.Querier, itemID string, quantity int) error
	// DeleteItemsExcept removes every item whose product is not in keep.
	DeleteItemsExcept(ctx context.Context, q db.Querier, orderID string, keep []string) (int64, error)
	// TransitionStatus moves the order from one status to another and reports
	// whether the row was still in the expected status.
	TransitionStatus(ctx context.Context, q db.Querier, id string, from, to domain.OrderStatus) (bool, error)
	SetAddresses(ctx context.Context, q db.Querier, id string, shippingID, billingID *string) error
	Delete(ctx context.Context, q db.Querier, id string) error
}
