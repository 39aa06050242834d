package checkout

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository/memory"
	orderrepo "storefront/internal/repository/order"
	ordersvc "storefront/internal/service/order"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	store *memory.Store
	buyer domain.Actor
	lamp  domain.Product
	desk  domain.Product
	order *domain.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	seller := store.SeedUser("seller", false)
	buyer := store.SeedUser("buyer", false)
	lamp := store.SeedProduct(seller.ID, "Lamp", "10.00", 5)
	desk := store.SeedProduct(seller.ID, "Desk", "80.00", 2)

	o, _, err := store.Orders().FindOrCreatePending(ctx, nil, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, store.Orders().InsertItems(ctx, nil, o.ID, []orderrepo.NewItem{
		{ProductID: lamp.ID, Quantity: 2},
		{ProductID: desk.ID, Quantity: 1},
	}))

	details := ordersvc.Details{Orders: store.Orders(), Addresses: store.Addresses(), Payments: store.Payments()}
	return &fixture{
		svc:   New(store, details, nil),
		store: store,
		buyer: domain.Actor{UserID: buyer.ID},
		lamp:  lamp,
		desk:  desk,
		order: o,
	}
}

func address(city string) *AddressInput {
	return &AddressInput{Country: "de", City: city, StreetAddress: "Hauptstr. 1", PostalCode: "10115"}
}

func TestUpdateCreatesThenUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Update(ctx, f.buyer, f.order.ID, UpdateInput{
		ShippingAddress: address("Berlin"),
		BillingAddress:  address("Berlin"),
		Payment:         &PaymentInput{Method: domain.PaymentPayPal},
	})
	require.NoError(t, err)
	require.Equal(t, "DE", o.ShippingAddress.Country)
	require.Equal(t, domain.AddressBilling, o.BillingAddress.Kind)
	require.Equal(t, domain.PaymentPayPal, o.Payment.Method)
	require.Equal(t, domain.PaymentPending, o.Payment.Status)
	shippingID := o.ShippingAddress.ID
	paymentID := o.Payment.ID
	require.Equal(t, 2, f.store.CountAddresses())

	o, err = f.svc.Update(ctx, f.buyer, f.order.ID, UpdateInput{
		ShippingAddress: address("Hamburg"),
		Payment:         &PaymentInput{Method: domain.PaymentStripe},
	})
	require.NoError(t, err)
	require.Equal(t, shippingID, o.ShippingAddress.ID)
	require.Equal(t, "Hamburg", o.ShippingAddress.City)
	require.Equal(t, "Berlin", o.BillingAddress.City)
	require.Equal(t, paymentID, o.Payment.ID)
	require.Equal(t, domain.PaymentStripe, o.Payment.Method)
	require.Equal(t, 2, f.store.CountAddresses())
}

func TestUpdateInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetStock(f.lamp.ID, 1)
	f.store.SetStock(f.desk.ID, 0)

	_, err := f.svc.Update(ctx, f.buyer, f.order.ID, UpdateInput{
		ShippingAddress: address("Berlin"),
		BillingAddress:  address("Berlin"),
		Payment:         &PaymentInput{Method: domain.PaymentStripe},
	})
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
	require.EqualError(t, err, "the following products are out of stock or insufficient: Lamp, Desk")

	require.Zero(t, f.store.CountAddresses())
	_, ok := f.store.PaymentFor(f.order.ID)
	require.False(t, ok)
	got, err := f.svc.Get(ctx, f.buyer, f.order.ID)
	require.NoError(t, err)
	require.Nil(t, got.ShippingAddress)
	require.Nil(t, got.BillingAddress)
}

func TestUpdateRejectsNonPendingBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ok, err := f.store.Orders().TransitionStatus(ctx, nil, f.order.ID, domain.OrderPending, domain.OrderCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Update(ctx, f.buyer, f.order.ID, UpdateInput{ShippingAddress: address("Berlin")})
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))
	require.Zero(t, f.store.CountAddresses())

	_, err = f.svc.Update(ctx, f.buyer, f.order.ID, UpdateInput{ShippingAddress: &AddressInput{Country: "Germany"}})
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	got, err := f.svc.Get(ctx, f.buyer, f.order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, got.Status)
}

func TestUpdateAccessAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := domain.Actor{UserID: f.store.SeedUser("stranger", false).ID}

	_, err := f.svc.Update(ctx, stranger, f.order.ID, UpdateInput{ShippingAddress: address("Berlin")})
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))
	_, err = f.svc.Get(ctx, stranger, f.order.ID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = f.svc.Update(ctx, f.buyer, f.order.ID, UpdateInput{ShippingAddress: &AddressInput{Country: "Germany", City: "Berlin", StreetAddress: "x"}})
	require.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.svc.Update(ctx, f.buyer, f.order.ID, UpdateInput{Payment: &PaymentInput{Method: "cash"}})
	require.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.svc.Update(ctx, f.buyer, "missing", UpdateInput{})
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))

	badAddress := UpdateInput{ShippingAddress: &AddressInput{Country: "Germany"}}
	_, err = f.svc.Update(ctx, stranger, f.order.ID, badAddress)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))
	_, err = f.svc.Update(ctx, stranger, f.order.ID, UpdateInput{Payment: &PaymentInput{Method: "cash"}})
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	staff := domain.Actor{UserID: f.store.SeedUser("staff", true).ID, IsStaff: true}
	_, err = f.svc.Update(ctx, staff, f.order.ID, UpdateInput{Payment: &PaymentInput{Method: domain.PaymentPayPal}})
	require.NoError(t, err)
}

func TestUpdateStorageFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("payments.Create", errors.New("conn closed"))

	_, err := f.svc.Update(context.Background(), f.buyer, f.order.ID, UpdateInput{
		ShippingAddress: address("Berlin"),
		Payment:         &PaymentInput{Method: domain.PaymentPayPal},
	})
	require.Equal(t, domain.KindInternal, domain.KindOf(err))
	require.Zero(t, f.store.CountAddresses())
}
