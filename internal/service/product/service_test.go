package product

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository/memory"
	productrepo "storefront/internal/repository/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *memory.Store) {
	store := memory.New()
	return New(store, store.Products(), store.Categories(), nil), store
}

func TestCreateDefaultsCategory(t *testing.T) {
	svc, store := newTestService()
	seller := store.SeedUser("seller", false)

	p, err := svc.Create(context.Background(), domain.Actor{UserID: seller.ID}, CreateInput{
		Name:     "Lamp",
		Price:    decimal.RequireFromString("19.99"),
		Quantity: 3,
	})
	require.NoError(t, err)
	require.Equal(t, seller.ID, p.SellerID)
	require.Equal(t, domain.DefaultCategory, p.CategoryName)
}

func TestCreateValidation(t *testing.T) {
	svc, store := newTestService()
	seller := domain.Actor{UserID: store.SeedUser("seller", false).ID}
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Actor{}, CreateInput{Name: "Lamp"})
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	for _, in := range []CreateInput{
		{Name: "", Price: decimal.NewFromInt(1)},
		{Name: "Lamp", Price: decimal.RequireFromString("-1")},
		{Name: "Lamp", Price: decimal.RequireFromString("1.234")},
		{Name: "Lamp", Price: decimal.NewFromInt(1), Quantity: -1},
	} {
		_, err := svc.Create(ctx, seller, in)
		require.Equal(t, domain.KindValidation, domain.KindOf(err), "%+v", in)
	}
}

func TestCreateDuplicateNameIsConflict(t *testing.T) {
	svc, store := newTestService()
	seller := domain.Actor{UserID: store.SeedUser("seller", false).ID}
	in := CreateInput{Name: "Lamp", Category: "Lighting", Price: decimal.NewFromInt(5)}

	_, err := svc.Create(context.Background(), seller, in)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), seller, in)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestUpdateAndDeleteRequireSellerOrStaff(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	seller := store.SeedUser("seller", false)
	other := store.SeedUser("other", false)
	staff := store.SeedUser("staff", true)
	p := store.SeedProduct(seller.ID, "Lamp", "10.00", 4)

	price := decimal.RequireFromString("12.50")
	_, err := svc.Update(ctx, domain.Actor{UserID: other.ID}, p.ID, UpdateInput{Price: &price})
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	category := "Lighting"
	updated, err := svc.Update(ctx, domain.Actor{UserID: seller.ID}, p.ID, UpdateInput{Price: &price, Category: &category})
	require.NoError(t, err)
	require.True(t, price.Equal(updated.Price))
	require.Equal(t, "Lighting", updated.CategoryName)
	require.Equal(t, 4, updated.Quantity)

	err = svc.Delete(ctx, domain.Actor{UserID: other.ID}, p.ID)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))
	require.NoError(t, svc.Delete(ctx, domain.Actor{UserID: staff.ID, IsStaff: true}, p.ID))

	_, err = svc.Get(ctx, p.ID)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestListFiltersByCategory(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	seller := domain.Actor{UserID: store.SeedUser("seller", false).ID}
	_, err := svc.Create(ctx, seller, CreateInput{Name: "Lamp", Category: "Lighting", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, seller, CreateInput{Name: "Desk", Category: "Furniture", Price: decimal.NewFromInt(50)})
	require.NoError(t, err)

	all, err := svc.List(ctx, productrepo.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	lighting, err := svc.List(ctx, productrepo.ListFilter{Category: "lighting"})
	require.NoError(t, err)
	require.Len(t, lighting, 1)
	require.Equal(t, "Lamp", lighting[0].Name)
}

func TestStorageFailureIsOpaque(t *testing.T) {
	svc, store := newTestService()
	store.FailOn("products.List", errors.New("pq: relation does not exist"))

	_, err := svc.List(context.Background(), productrepo.ListFilter{})
	require.Equal(t, domain.KindInternal, domain.KindOf(err))
	require.NotContains(t, err.Error(), "relation")
}
