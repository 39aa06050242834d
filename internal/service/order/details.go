package order

import (
	"context"
	"errors"

	"storefront/internal/db"
	"storefront/internal/domain"
	addressrepo "storefront/internal/repository/address"
	orderrepo "storefront/internal/repository/order"
	paymentrepo "storefront/internal/repository/payment"
)

// Details fills the read model of an order header: items, addresses and
// payment. Checkout and payment confirmation reuse it.
type Details struct {
	Orders    orderrepo.Repository
	Addresses addressrepo.Repository
	Payments  paymentrepo.Repository
}

func (d Details) Load(ctx context.Context, q db.Querier, o *domain.Order) error {
	items, err := d.Orders.Items(ctx, q, o.ID)
	if err != nil {
		return err
	}
	o.Items = items

	if o.ShippingAddressID != nil {
		if o.ShippingAddress, err = d.address(ctx, q, *o.ShippingAddressID); err != nil {
			return err
		}
	}
	if o.BillingAddressID != nil {
		if o.BillingAddress, err = d.address(ctx, q, *o.BillingAddressID); err != nil {
			return err
		}
	}

	p, err := d.Payments.GetByOrder(ctx, q, o.ID)
	switch {
	case err == nil:
		o.Payment = p
	case errors.Is(err, domain.ErrNotFound):
		o.Payment = nil
	default:
		return err
	}
	return nil
}

func (d Details) address(ctx context.Context, q db.Querier, id string) (*domain.Address, error) {
	a, err := d.Addresses.Get(ctx, q, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return a, err
}
