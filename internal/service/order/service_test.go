package order

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *Service
	store     *memory.Store
	recorder  *events.Recorder
	buyer     domain.Actor
	staff     domain.Actor
	productX  domain.Product
	productY  domain.Product
	cartItems map[string]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	seller := store.SeedUser("seller", false)
	buyer := store.SeedUser("buyer", false)
	staff := store.SeedUser("staff", true)
	rec := &events.Recorder{}
	details := Details{Orders: store.Orders(), Addresses: store.Addresses(), Payments: store.Payments()}
	return &fixture{
		svc:       New(store, details, store.Carts(), rec, nil),
		store:     store,
		recorder:  rec,
		buyer:     domain.Actor{UserID: buyer.ID},
		staff:     domain.Actor{UserID: staff.ID, IsStaff: true},
		productX:  store.SeedProduct(seller.ID, "ProductX", "10.00", 10),
		productY:  store.SeedProduct(seller.ID, "ProductY", "5.00", 10),
		cartItems: map[string]string{},
	}
}

func (f *fixture) addToCart(t *testing.T, p domain.Product, qty int) {
	t.Helper()
	ctx := context.Background()
	c, err := f.store.Carts().GetOrCreate(ctx, nil, f.buyer.UserID)
	require.NoError(t, err)
	item, err := f.store.Carts().AddItem(ctx, nil, c.ID, p.ID, qty)
	require.NoError(t, err)
	f.cartItems[p.ID] = item.ID
}

func (f *fixture) setCartQty(t *testing.T, p domain.Product, qty int) {
	t.Helper()
	c, err := f.store.Carts().GetOrCreate(context.Background(), nil, f.buyer.UserID)
	require.NoError(t, err)
	require.NoError(t, f.store.Carts().UpdateItemQuantity(context.Background(), nil, c.ID, f.cartItems[p.ID], qty))
}

func (f *fixture) removeFromCart(t *testing.T, p domain.Product) {
	t.Helper()
	c, err := f.store.Carts().GetOrCreate(context.Background(), nil, f.buyer.UserID)
	require.NoError(t, err)
	require.NoError(t, f.store.Carts().DeleteItem(context.Background(), nil, c.ID, f.cartItems[p.ID]))
}

func quantities(o *domain.Order) map[string]int {
	out := map[string]int{}
	for _, it := range o.Items {
		out[it.ProductName] = it.Quantity
	}
	return out
}

func TestCreateFromCartScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 2)
	f.addToCart(t, f.productY, 1)

	o, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	require.Equal(t, domain.OrderPending, o.Status)
	require.Equal(t, map[string]int{"ProductX": 2, "ProductY": 1}, quantities(o))
	require.Equal(t, "20.00", o.Items[0].Cost().StringFixed(2))
	require.Equal(t, "5.00", o.Items[1].Cost().StringFixed(2))
	require.Equal(t, "25.00", o.TotalCost().StringFixed(2))

	f.removeFromCart(t, f.productY)
	again, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	require.Equal(t, o.ID, again.ID)
	require.Equal(t, map[string]int{"ProductX": 2}, quantities(again))
	require.Equal(t, "20.00", again.TotalCost().StringFixed(2))

	require.Equal(t, []string{events.OrderPlaced, events.OrderPlaced}, f.recorder.Types())
}

func TestCreateFromCartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 2)

	first, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	second, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, second.Items, 1)
	require.Equal(t, first.Items[0].ID, second.Items[0].ID)
	require.Equal(t, 1, f.store.CountOrders(f.buyer.UserID, domain.OrderPending))
}

func TestCreateFromCartOverwritesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 1)
	_, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)

	f.setCartQty(t, f.productX, 3)
	o, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"ProductX": 3}, quantities(o))
}

func TestCreateFromCartUsesCurrentPrice(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, f.productX, 2)
	o, err := f.svc.CreateFromCart(context.Background(), f.buyer)
	require.NoError(t, err)

	f.store.SetPrice(f.productX.ID, "12.00")
	got, err := f.svc.Get(context.Background(), f.buyer, o.ID)
	require.NoError(t, err)
	require.Equal(t, "24.00", got.TotalCost().StringFixed(2))
}

func TestCreateFromEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateFromCart(context.Background(), f.buyer)
	require.Equal(t, domain.KindValidation, domain.KindOf(err))
	require.EqualError(t, err, "cart is empty")
	require.Zero(t, f.store.CountOrders(f.buyer.UserID, domain.OrderPending))
	require.Empty(t, f.recorder.Types())
}

func TestCreateFromCartRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, f.productX, 2)
	f.store.FailOn("orders.InsertItems", errors.New("pq: could not serialize access"))

	_, err := f.svc.CreateFromCart(context.Background(), f.buyer)
	require.Equal(t, domain.KindInternal, domain.KindOf(err))
	require.NotContains(t, err.Error(), "serialize")
	require.Zero(t, f.store.CountOrders(f.buyer.UserID, domain.OrderPending))
	require.Empty(t, f.recorder.Types())
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 1)
	o, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)

	stranger := domain.Actor{UserID: f.store.SeedUser("stranger", false).ID}
	_, err = f.svc.Cancel(ctx, stranger, o.ID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	cancelled, err := f.svc.Cancel(ctx, f.buyer, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, f.buyer, o.ID)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
	require.EqualError(t, err, "this order cannot be cancelled")

	got, err := f.svc.Get(ctx, f.staff, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, got.Status)
	require.Equal(t, []string{events.OrderPlaced, events.OrderCancelled}, f.recorder.Types())
}

func TestCancelCompletedOrderLeavesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 1)
	o, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	ok, err := f.store.Orders().TransitionStatus(ctx, nil, o.ID, domain.OrderPending, domain.OrderCompleted)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Cancel(ctx, f.staff, o.ID)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
	require.Equal(t, 1, f.store.CountOrders(f.buyer.UserID, domain.OrderCompleted))
}

func TestReconcileAfterCancelStartsNewOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 1)
	first, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.buyer, first.ID)
	require.NoError(t, err)

	second, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 1)
	first, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.buyer, first.ID)
	require.NoError(t, err)
	second, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, f.buyer, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)
	require.Len(t, all[0].Items, 1)

	pending, err := f.svc.List(ctx, f.buyer, "P")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)

	ignored, err := f.svc.List(ctx, f.buyer, "shipped")
	require.NoError(t, err)
	require.Len(t, ignored, 2)

	other := domain.Actor{UserID: f.store.SeedUser("other", false).ID}
	none, err := f.svc.List(ctx, other, "")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 1)
	o, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)

	stranger := domain.Actor{UserID: f.store.SeedUser("stranger", false).ID}
	_, err = f.svc.Get(ctx, stranger, o.ID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = f.svc.Get(ctx, f.buyer, "missing")
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))

	got, err := f.svc.Get(ctx, f.buyer, o.ID)
	require.NoError(t, err)
	require.Equal(t, "buyer", got.BuyerName)
	require.Nil(t, got.Payment)
}

func TestDeleteIsStaffOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, f.productX, 1)
	o, err := f.svc.CreateFromCart(ctx, f.buyer)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.buyer, o.ID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	require.NoError(t, f.svc.Delete(ctx, f.staff, o.ID))
	_, err = f.svc.Get(ctx, f.staff, o.ID)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))

	err = f.svc.Delete(ctx, f.staff, o.ID)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
