package order

import (
	"context"
	"errors"

	"storefront/internal/authz"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/observability"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// cartReader lists the buyer's current cart contents. Orders never write to
// the cart.
type cartReader interface {
	ListItems(ctx context.Context, q db.Querier, userID string) ([]domain.CartItem, error)
}

type Service struct {
	runner    db.Runner
	orders    orderrepo.Repository
	carts     cartReader
	details   Details
	publisher events.Publisher
	logger    *zap.Logger
}

func New(runner db.Runner, details Details, carts cartReader, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		runner:    runner,
		orders:    details.Orders,
		carts:     carts,
		details:   details,
		publisher: publisher,
		logger:    observability.OrNop(logger).Named("order_service"),
	}
}

// CreateFromCart reconciles the buyer's cart into their pending order. The
// cart is authoritative: quantities are overwritten, new products are added
// and products no longer in the cart are dropped from the order.
func (s *Service) CreateFromCart(ctx context.Context, actor domain.Actor) (_ *domain.Order, err error) {
	ctx, span := service.StartSpan(ctx, "order.create_from_cart")
	defer func() { service.EndSpan(span, err) }()

	if err := authz.Authenticated(actor).Err(); err != nil {
		return nil, err
	}

	var (
		order   *domain.Order
		created bool
	)
	err = s.runner.InTx(ctx, func(q db.Querier) error {
		cartItems, err := s.carts.ListItems(ctx, q, actor.UserID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return domain.Validation("cart is empty")
		}

		order, created, err = s.orders.FindOrCreatePending(ctx, q, actor.UserID)
		if err != nil {
			return err
		}

		existing, err := s.orders.Items(ctx, q, order.ID)
		if err != nil {
			return err
		}
		byProduct := make(map[string]domain.OrderItem, len(existing))
		for _, it := range existing {
			byProduct[it.ProductID] = it
		}

		var staged []orderrepo.NewItem
		keep := make([]string, 0, len(cartItems))
		for _, ci := range cartItems {
			keep = append(keep, ci.ProductID)
			if it, ok := byProduct[ci.ProductID]; ok {
				if it.Quantity != ci.Quantity {
					if err := s.orders.UpdateItemQuantity(ctx, q, it.ID, ci.Quantity); err != nil {
						return err
					}
				}
				continue
			}
			staged = append(staged, orderrepo.NewItem{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
		if len(staged) > 0 {
			if err := s.orders.InsertItems(ctx, q, order.ID, staged); err != nil {
				return err
			}
		}
		removed, err := s.orders.DeleteItemsExcept(ctx, q, order.ID, keep)
		if err != nil {
			return err
		}
		span.SetAttributes(
			attribute.Int("order.items_added", len(staged)),
			attribute.Int64("order.items_removed", removed),
		)
		return s.details.Load(ctx, q, order)
	})
	if err != nil {
		return nil, service.Guard(s.logger, "order.create_from_cart", err)
	}

	s.logger.Info("order reconciled",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", actor.UserID),
		zap.Bool("created", created),
		zap.Int("items", len(order.Items)))
	events.Emit(ctx, s.publisher, s.logger, events.OrderPlaced, *order)
	return order, nil
}

// List returns the actor's orders, newest first. An unrecognised status
// filter is ignored.
func (s *Service) List(ctx context.Context, actor domain.Actor, status string) ([]domain.Order, error) {
	if err := authz.Authenticated(actor).Err(); err != nil {
		return nil, err
	}
	var filter *domain.OrderStatus
	if st, ok := domain.ParseOrderStatus(status); ok {
		filter = &st
	}

	q := s.runner.Querier()
	orders, err := s.orders.ListByBuyer(ctx, q, actor.UserID, filter)
	if err != nil {
		return nil, service.Guard(s.logger, "order.list", err)
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.orders.ItemsForOrders(ctx, q, ids)
	if err != nil {
		return nil, service.Guard(s.logger, "order.list", err)
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return orders, nil
}

// Get returns the order with its items, addresses and payment.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	q := s.runner.Querier()
	o, err := s.load(ctx, q, actor, id)
	if err != nil {
		return nil, service.Guard(s.logger, "order.get", err)
	}
	if err := s.details.Load(ctx, q, o); err != nil {
		return nil, service.Guard(s.logger, "order.get", err)
	}
	return o, nil
}

// Cancel moves a pending order to cancelled.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id string) (_ *domain.Order, err error) {
	ctx, span := service.StartSpan(ctx, "order.cancel")
	defer func() { service.EndSpan(span, err) }()

	var order *domain.Order
	err = s.runner.InTx(ctx, func(q db.Querier) error {
		o, err := s.load(ctx, q, actor, id)
		if err != nil {
			return err
		}
		if !o.IsPending() {
			return domain.Conflict("this order cannot be cancelled")
		}
		ok, err := s.orders.TransitionStatus(ctx, q, o.ID, domain.OrderPending, domain.OrderCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("this order cannot be cancelled")
		}
		o.Status = domain.OrderCancelled
		order = o
		return s.details.Load(ctx, q, order)
	})
	if err != nil {
		return nil, service.Guard(s.logger, "order.cancel", err)
	}
	s.logger.Info("order cancelled", zap.String("order_id", id), zap.String("actor_id", actor.UserID))
	events.Emit(ctx, s.publisher, s.logger, events.OrderCancelled, *order)
	return order, nil
}

// Delete removes an order and its items. Staff only.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := authz.StaffOnly(actor).Err(); err != nil {
		return err
	}
	var order *domain.Order
	err := s.runner.InTx(ctx, func(q db.Querier) error {
		o, err := s.orders.Get(ctx, q, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("order")
			}
			return err
		}
		order = o
		return s.orders.Delete(ctx, q, id)
	})
	if err != nil {
		return service.Guard(s.logger, "order.delete", err)
	}
	s.logger.Info("order deleted", zap.String("order_id", id), zap.String("actor_id", actor.UserID))
	events.Emit(ctx, s.publisher, s.logger, events.OrderDeleted, *order)
	return nil
}

// load fetches the order header and applies the owner-or-staff check.
func (s *Service) load(ctx context.Context, q db.Querier, actor domain.Actor, id string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, q, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("order")
		}
		return nil, err
	}
	if err := authz.OrderOwnerOrStaff(actor, *o).Err(); err != nil {
		return nil, err
	}
	return o, nil
}
