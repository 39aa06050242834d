package payment

import (
	"context"
	"errors"

	"storefront/internal/db"
	"storefront/internal/dedup"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/observability"
	orderrepo "storefront/internal/repository/order"
	paymentrepo "storefront/internal/repository/payment"
	"storefront/internal/service"
	ordersvc "storefront/internal/service/order"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const dedupScope = "stripe"

var errAlreadyConfirmed = domain.Conflict("payment already confirmed")

// stockWriter is the catalog write the confirmation performs.
type stockWriter interface {
	DecrementStock(ctx context.Context, q db.Querier, id string, qty int) error
}

// Result is returned to the provider after a delivery is processed.
type Result struct {
	Handled   bool
	OrderID   string
	TotalCost decimal.Decimal
	Detail    string
}

type Service struct {
	runner    db.Runner
	orders    orderrepo.Repository
	payments  paymentrepo.Repository
	products  stockWriter
	details   ordersvc.Details
	dedup     dedup.Store
	publisher events.Publisher
	secret    string
	logger    *zap.Logger
}

// Options configures signature verification and the delivery cache.
// An empty Secret disables signature checks.
type Options struct {
	Secret    string
	Dedup     dedup.Store
	Publisher events.Publisher
}

func New(runner db.Runner, details ordersvc.Details, products stockWriter, opts Options, logger *zap.Logger) *Service {
	if opts.Dedup == nil {
		opts.Dedup = dedup.Noop{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Noop{}
	}
	return &Service{
		runner:    runner,
		orders:    details.Orders,
		payments:  details.Payments,
		products:  products,
		details:   details,
		dedup:     opts.Dedup,
		publisher: opts.Publisher,
		secret:    opts.Secret,
		logger:    observability.OrNop(logger).Named("payment_service"),
	}
}

// HandleWebhook verifies, parses and applies one provider delivery.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if s.secret != "" {
		if err := webhook.ValidatePayload(payload, signature, s.secret); err != nil {
			s.logger.Warn("webhook signature rejected", zap.Error(err))
			return nil, domain.Unauthorized("invalid webhook signature")
		}
	}
	n, err := ParseNotification(payload)
	if err != nil {
		return nil, err
	}
	if n.Type != EventCheckoutCompleted {
		s.logger.Debug("webhook event ignored", zap.String("type", n.Type), zap.String("event_id", n.EventID))
		return &Result{Detail: "event ignored"}, nil
	}

	if n.EventID != "" {
		seen, err := s.dedup.Seen(ctx, dedupScope, n.EventID)
		if err != nil {
			s.logger.Warn("dedup lookup failed", zap.String("event_id", n.EventID), zap.Error(err))
		} else if seen {
			return nil, errAlreadyConfirmed
		}
	}

	res, err := s.Confirm(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}
	if n.EventID != "" {
		if err := s.dedup.Mark(ctx, dedupScope, n.EventID); err != nil {
			s.logger.Warn("dedup mark failed", zap.String("event_id", n.EventID), zap.Error(err))
		}
	}
	return res, nil
}

// Confirm completes the order's payment and decrements stock for every
// item, all in one transaction. A second confirmation is a conflict and
// leaves stock untouched.
func (s *Service) Confirm(ctx context.Context, orderID string) (_ *Result, err error) {
	ctx, span := service.StartSpan(ctx, "payment.confirm")
	span.SetAttributes(attribute.String("order.id", orderID))
	defer func() { service.EndSpan(span, err) }()

	var order *domain.Order
	err = s.runner.InTx(ctx, func(q db.Querier) error {
		o, err := s.orders.GetForUpdate(ctx, q, orderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("order")
			}
			return err
		}
		switch o.Status {
		case domain.OrderCompleted:
			return errAlreadyConfirmed
		case domain.OrderCancelled:
			return domain.Conflict("order was cancelled")
		}

		p, err := s.payments.GetByOrder(ctx, q, o.ID)
		if errors.Is(err, domain.ErrNotFound) {
			p, err = s.payments.Create(ctx, q, o.ID, domain.PaymentStripe)
		}
		if err != nil {
			return err
		}
		if p.Status == domain.PaymentCompleted {
			return errAlreadyConfirmed
		}
		ok, err := s.payments.MarkCompleted(ctx, q, p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadyConfirmed
		}
		ok, err = s.orders.TransitionStatus(ctx, q, o.ID, domain.OrderPending, domain.OrderCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadyConfirmed
		}
		o.Status = domain.OrderCompleted

		items, err := s.orders.Items(ctx, q, o.ID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := s.products.DecrementStock(ctx, q, it.ProductID, it.Quantity); err != nil {
				s.logger.Error("stock decrement failed", zap.String("product_id", it.ProductID), zap.Error(err))
				return err
			}
		}
		if err := s.details.Load(ctx, q, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, service.Guard(s.logger, "payment.confirm", err)
	}

	total := order.TotalCost()
	s.logger.Info("payment confirmed",
		zap.String("order_id", order.ID),
		zap.String("total_cost", total.StringFixed(2)),
		zap.Int("items", len(order.Items)))
	events.Emit(ctx, s.publisher, s.logger, events.OrderCompleted, *order)
	return &Result{
		Handled:   true,
		OrderID:   order.ID,
		TotalCost: total,
		Detail:    "payment confirmed for order " + order.ID,
	}, nil
}
