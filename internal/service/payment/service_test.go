package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/dedup"
	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository/memory"
	orderrepo "storefront/internal/repository/order"
	ordersvc "storefront/internal/service/order"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memory.Store
	details  ordersvc.Details
	recorder *events.Recorder
	dedup    *dedup.Memory
	x, y     domain.Product
	order    *domain.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	seller := store.SeedUser("seller", false)
	buyer := store.SeedUser("buyer", false)
	x := store.SeedProduct(seller.ID, "ProductX", "10.00", 10)
	y := store.SeedProduct(seller.ID, "ProductY", "5.00", 4)

	o, _, err := store.Orders().FindOrCreatePending(ctx, nil, buyer.ID)
	require.NoError(t, err)
	require.NoError(t, store.Orders().InsertItems(ctx, nil, o.ID, []orderrepo.NewItem{
		{ProductID: x.ID, Quantity: 2},
		{ProductID: y.ID, Quantity: 1},
	}))
	return &fixture{
		store:    store,
		details:  ordersvc.Details{Orders: store.Orders(), Addresses: store.Addresses(), Payments: store.Payments()},
		recorder: &events.Recorder{},
		dedup:    dedup.NewMemory(),
		x:        x,
		y:        y,
		order:    o,
	}
}

func (f *fixture) service(secret string) *Service {
	return New(f.store, f.details, f.store.Products(), Options{
		Secret:    secret,
		Dedup:     f.dedup,
		Publisher: f.recorder,
	}, nil)
}

func (f *fixture) payload(eventID string) []byte {
	return []byte(fmt.Sprintf(`{"event":{"id":%q,"type":"checkout.session.completed","data":{"object":{"metadata":{"order_id":%q}}}}}`, eventID, f.order.ID))
}

func sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestConfirmationIsSingleFire(t *testing.T) {
	f := newFixture(t)
	svc := f.service("")
	ctx := context.Background()

	res, err := svc.HandleWebhook(ctx, f.payload("evt_1"), "")
	require.NoError(t, err)
	require.True(t, res.Handled)
	require.Equal(t, "25.00", res.TotalCost.StringFixed(2))
	require.Equal(t, "payment confirmed for order "+f.order.ID, res.Detail)
	require.Equal(t, 8, f.store.Product(f.x.ID).Quantity)
	require.Equal(t, 3, f.store.Product(f.y.ID).Quantity)

	p, ok := f.store.PaymentFor(f.order.ID)
	require.True(t, ok)
	require.Equal(t, domain.PaymentCompleted, p.Status)
	require.Equal(t, domain.PaymentStripe, p.Method)

	// Same event redelivered: rejected by the delivery cache.
	_, err = svc.HandleWebhook(ctx, f.payload("evt_1"), "")
	require.Equal(t, domain.KindConflict, domain.KindOf(err))

	// New event id for the same order: rejected by the status guard.
	_, err = svc.HandleWebhook(ctx, f.payload("evt_2"), "")
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
	require.EqualError(t, err, "payment already confirmed")

	require.Equal(t, 8, f.store.Product(f.x.ID).Quantity)
	require.Equal(t, 3, f.store.Product(f.y.ID).Quantity)
	require.Equal(t, 1, f.store.CountOrders(f.order.BuyerID, domain.OrderCompleted))
	require.Equal(t, []string{events.OrderCompleted}, f.recorder.Types())
}

func TestConfirmUsesExistingPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Payments().Create(ctx, nil, f.order.ID, domain.PaymentPayPal)
	require.NoError(t, err)

	_, err = f.service("").Confirm(ctx, f.order.ID)
	require.NoError(t, err)
	p, _ := f.store.PaymentFor(f.order.ID)
	require.Equal(t, domain.PaymentPayPal, p.Method)
	require.Equal(t, domain.PaymentCompleted, p.Status)
}

func TestConfirmRejectsCompletedPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.store.Payments().Create(ctx, nil, f.order.ID, domain.PaymentStripe)
	require.NoError(t, err)
	_, err = f.store.Payments().MarkCompleted(ctx, nil, p.ID)
	require.NoError(t, err)

	_, err = f.service("").Confirm(ctx, f.order.ID)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
	require.Equal(t, 10, f.store.Product(f.x.ID).Quantity)
	require.Equal(t, 1, f.store.CountOrders(f.order.BuyerID, domain.OrderPending))
}

func TestConfirmCancelledOrderIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Orders().TransitionStatus(ctx, nil, f.order.ID, domain.OrderPending, domain.OrderCancelled)
	require.NoError(t, err)

	_, err = f.service("").Confirm(ctx, f.order.ID)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestConfirmRollsBackPartialDecrement(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("orders.Items", errors.New("connection reset by peer"))

	_, err := f.service("").Confirm(context.Background(), f.order.ID)
	require.Equal(t, domain.KindInternal, domain.KindOf(err))
	require.Equal(t, 10, f.store.Product(f.x.ID).Quantity)
	require.Equal(t, 1, f.store.CountOrders(f.order.BuyerID, domain.OrderPending))
	p, ok := f.store.PaymentFor(f.order.ID)
	require.False(t, ok, "payment %+v should have been rolled back", p)
	require.Empty(t, f.recorder.Types())
}

func TestConfirmUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.service("").Confirm(context.Background(), "0b0c5c2e-8d0e-4a8e-9b1e-000000000000")
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	res, err := f.service("").HandleWebhook(context.Background(), []byte(`{"type":"payment_intent.created","data":{"object":{}}}`), "")
	require.NoError(t, err)
	require.False(t, res.Handled)
	require.Equal(t, 10, f.store.Product(f.x.ID).Quantity)
}

func TestHandleWebhookVerifiesSignature(t *testing.T) {
	f := newFixture(t)
	svc := f.service("whsec_test")
	payload := f.payload("evt_signed")

	_, err := svc.HandleWebhook(context.Background(), payload, sign(payload, "whsec_wrong", time.Now()))
	require.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	_, err = svc.HandleWebhook(context.Background(), payload, "")
	require.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	res, err := svc.HandleWebhook(context.Background(), payload, sign(payload, "whsec_test", time.Now()))
	require.NoError(t, err)
	require.True(t, res.Handled)
}
