package seed

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/repository/memory"
	productrepo "storefront/internal/repository/product"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func storesFor(s *memory.Store) Stores {
	return Stores{Users: s.Users(), Carts: s.Carts(), Categories: s.Categories(), Products: s.Products()}
}

func TestApplyIsIdempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, Apply(ctx, store, storesFor(store), nil))
	require.NoError(t, Apply(ctx, store, storesFor(store), nil))

	admin, err := store.Users().GetByEmail(ctx, nil, "admin@storefront.local")
	require.NoError(t, err)
	require.True(t, admin.IsStaff)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(DemoPassword)))

	seller, err := store.Users().GetByEmail(ctx, nil, "seller@storefront.local")
	require.NoError(t, err)

	products, err := store.Products().List(ctx, nil, productrepo.ListFilter{})
	require.NoError(t, err)
	require.Len(t, products, len(demoProducts))
	for _, p := range products {
		require.Equal(t, seller.ID, p.SellerID)
	}

	cats, err := store.Categories().List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, cats, 3)
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	store := memory.New()
	store.FailOn("products.Create", errors.New("disk full"))

	err := Apply(context.Background(), store, storesFor(store), nil)
	require.ErrorContains(t, err, "disk full")

	_, err = store.Users().GetByEmail(context.Background(), nil, "admin@storefront.local")
	require.Error(t, err)
}
