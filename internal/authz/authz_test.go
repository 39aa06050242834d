package authz

import (
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestOrderOwnerOrStaff(t *testing.T) {
	order := domain.Order{ID: "o1", BuyerID: "buyer"}

	require.True(t, OrderOwnerOrStaff(domain.Actor{UserID: "buyer"}, order).Allowed)
	require.True(t, OrderOwnerOrStaff(domain.Actor{UserID: "admin", IsStaff: true}, order).Allowed)

	d := OrderOwnerOrStaff(domain.Actor{UserID: "other"}, order)
	require.False(t, d.Allowed)
	require.NotEmpty(t, d.Reason)
	require.Equal(t, domain.KindForbidden, domain.KindOf(d.Err()))
}

func TestCheckoutWritable(t *testing.T) {
	require.True(t, CheckoutWritable(domain.Order{Status: domain.OrderPending}).Allowed)
	require.False(t, CheckoutWritable(domain.Order{Status: domain.OrderCompleted}).Allowed)
	require.False(t, CheckoutWritable(domain.Order{Status: domain.OrderCancelled}).Allowed)
}

func TestAllReturnsFirstDenial(t *testing.T) {
	actor := domain.Actor{UserID: "buyer"}
	order := domain.Order{BuyerID: "buyer", Status: domain.OrderCompleted}

	d := All(OrderOwnerOrStaff(actor, order), CheckoutWritable(order))
	require.False(t, d.Allowed)
	require.Contains(t, d.Reason, "pending")

	require.NoError(t, All(Authenticated(actor), OrderOwnerOrStaff(actor, order)).Err())
}

func TestProductChecks(t *testing.T) {
	p := domain.Product{ID: "p1", SellerID: "seller"}

	require.True(t, ManageProduct(domain.Actor{UserID: "seller"}, p).Allowed)
	require.True(t, ManageProduct(domain.Actor{UserID: "x", IsStaff: true}, p).Allowed)
	require.False(t, ManageProduct(domain.Actor{UserID: "x"}, p).Allowed)

	require.False(t, NotOwnProduct(domain.Actor{UserID: "seller"}, p).Allowed)
	require.True(t, NotOwnProduct(domain.Actor{UserID: "buyer"}, p).Allowed)
}

func TestStaffOnly(t *testing.T) {
	require.False(t, StaffOnly(domain.Actor{UserID: "u"}).Allowed)
	require.True(t, StaffOnly(domain.Actor{UserID: "u", IsStaff: true}).Allowed)
	require.False(t, Authenticated(domain.Actor{}).Allowed)
}
