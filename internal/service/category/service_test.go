package category

import (
	"context"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

func TestCreateIsStaffOnly(t *testing.T) {
	store := memory.New()
	svc := New(store, store.Categories(), nil)
	buyer := store.SeedUser("buyer", false)
	staff := store.SeedUser("staff", true)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Actor{UserID: buyer.ID}, "Lighting")
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))

	c, err := svc.Create(ctx, domain.Actor{UserID: staff.ID, IsStaff: true}, " Lighting ")
	require.NoError(t, err)
	require.Equal(t, "Lighting", c.Name)

	_, err = svc.Create(ctx, domain.Actor{UserID: staff.ID, IsStaff: true}, "Lighting")
	require.Equal(t, domain.KindConflict, domain.KindOf(err))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
