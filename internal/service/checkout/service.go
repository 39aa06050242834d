package checkout

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"storefront/internal/authz"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/observability"
	addressrepo "storefront/internal/repository/address"
	orderrepo "storefront/internal/repository/order"
	paymentrepo "storefront/internal/repository/payment"
	"storefront/internal/service"
	ordersvc "storefront/internal/service/order"

	"go.uber.org/zap"
)

// AddressInput is a shipping or billing address as submitted at checkout.
type AddressInput struct {
	Country          string `json:"country"`
	City             string `json:"city"`
	StreetAddress    string `json:"streetAddress"`
	ApartmentAddress string `json:"apartmentAddress"`
	PostalCode       string `json:"postalCode"`
}

// PaymentInput carries the payment method. Payment status is not writable.
type PaymentInput struct {
	Method domain.PaymentMethod `json:"method"`
}

// UpdateInput is a partial checkout update; nil parts are left untouched.
type UpdateInput struct {
	ShippingAddress *AddressInput `json:"shippingAddress,omitempty"`
	BillingAddress  *AddressInput `json:"billingAddress,omitempty"`
	Payment         *PaymentInput `json:"payment,omitempty"`
}

type Service struct {
	runner    db.Runner
	orders    orderrepo.Repository
	addresses addressrepo.Repository
	payments  paymentrepo.Repository
	details   ordersvc.Details
	logger    *zap.Logger
}

func New(runner db.Runner, details ordersvc.Details, logger *zap.Logger) *Service {
	return &Service{
		runner:    runner,
		orders:    details.Orders,
		addresses: details.Addresses,
		payments:  details.Payments,
		details:   details,
		logger:    observability.OrNop(logger).Named("checkout_service"),
	}
}

// Get returns the order as seen at checkout, in any status.
func (s *Service) Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	q := s.runner.Querier()
	o, err := s.load(ctx, q, actor, orderID, false)
	if err == nil {
		err = s.details.Load(ctx, q, o)
	}
	if err != nil {
		return nil, service.Guard(s.logger, "checkout.get", err)
	}
	return o, nil
}

// Update attaches addresses and a payment method to a pending order. Every
// item is then checked against current stock; a shortage rolls back the
// whole update.
func (s *Service) Update(ctx context.Context, actor domain.Actor, orderID string, in UpdateInput) (_ *domain.Order, err error) {
	ctx, span := service.StartSpan(ctx, "checkout.update")
	defer func() { service.EndSpan(span, err) }()

	var order *domain.Order
	err = s.runner.InTx(ctx, func(q db.Querier) error {
		o, err := s.load(ctx, q, actor, orderID, true)
		if err != nil {
			return err
		}
		if err := authz.CheckoutWritable(*o).Err(); err != nil {
			return err
		}

		// Payload errors are reported only to callers allowed to write.
		shipping, err := normalizeAddress("shippingAddress", in.ShippingAddress)
		if err != nil {
			return err
		}
		billing, err := normalizeAddress("billingAddress", in.BillingAddress)
		if err != nil {
			return err
		}
		if in.Payment != nil && !in.Payment.Method.Valid() {
			return domain.FieldError("payment.method", "must be one of paypal, stripe")
		}

		shippingID, err := s.upsertAddress(ctx, q, o, domain.AddressShipping, o.ShippingAddressID, shipping)
		if err != nil {
			return err
		}
		billingID, err := s.upsertAddress(ctx, q, o, domain.AddressBilling, o.BillingAddressID, billing)
		if err != nil {
			return err
		}
		if !sameID(shippingID, o.ShippingAddressID) || !sameID(billingID, o.BillingAddressID) {
			if err := s.orders.SetAddresses(ctx, q, o.ID, shippingID, billingID); err != nil {
				return err
			}
			o.ShippingAddressID, o.BillingAddressID = shippingID, billingID
		}

		if in.Payment != nil {
			if err := s.attachPayment(ctx, q, o.ID, in.Payment.Method); err != nil {
				return err
			}
		}

		if err := s.details.Load(ctx, q, o); err != nil {
			return err
		}
		if short := domain.InsufficientProducts(o.Items); len(short) > 0 {
			return domain.InsufficientStock(short)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, service.Guard(s.logger, "checkout.update", err)
	}
	s.logger.Info("checkout updated", zap.String("order_id", orderID), zap.String("actor_id", actor.UserID))
	return order, nil
}

func (s *Service) load(ctx context.Context, q db.Querier, actor domain.Actor, id string, forUpdate bool) (*domain.Order, error) {
	get := s.orders.Get
	if forUpdate {
		get = s.orders.GetForUpdate
	}
	o, err := get(ctx, q, id)
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

// upsertAddress updates the linked address in place or creates a new one,
// returning the id the order should point at.
func (s *Service) upsertAddress(ctx context.Context, q db.Querier, o *domain.Order, kind domain.AddressKind, current *string, in *domain.Address) (*string, error) {
	if in == nil {
		return current, nil
	}
	in.UserID = o.BuyerID
	in.Kind = kind
	if current != nil {
		in.ID = *current
		_, err := s.addresses.Update(ctx, q, *in)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	created, err := s.addresses.Create(ctx, q, *in)
	if err != nil {
		return nil, err
	}
	return &created.ID, nil
}

func (s *Service) attachPayment(ctx context.Context, q db.Querier, orderID string, method domain.PaymentMethod) error {
	p, err := s.payments.GetByOrder(ctx, q, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		_, err = s.payments.Create(ctx, q, orderID, method)
		return err
	}
	if err != nil {
		return err
	}
	if p.Method == method {
		return nil
	}
	_, err = s.payments.UpdateMethod(ctx, q, p.ID, method)
	return err
}

func normalizeAddress(field string, in *AddressInput) (*domain.Address, error) {
	if in == nil {
		return nil, nil
	}
	a := &domain.Address{
		Country:          strings.ToUpper(strings.TrimSpace(in.Country)),
		City:             strings.TrimSpace(in.City),
		StreetAddress:    strings.TrimSpace(in.StreetAddress),
		ApartmentAddress: strings.TrimSpace(in.ApartmentAddress),
		PostalCode:       strings.TrimSpace(in.PostalCode),
	}
	if len(a.Country) != 2 || !isLetters(a.Country) {
		return nil, domain.FieldError(field+".country", "must be a two-letter country code")
	}
	if a.City == "" {
		return nil, domain.FieldError(field+".city", "required")
	}
	if a.StreetAddress == "" {
		return nil, domain.FieldError(field+".streetAddress", "required")
	}
	return a, nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
