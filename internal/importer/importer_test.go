package importer

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository/memory"
	productrepo "storefront/internal/repository/product"

	"github.com/stretchr/testify/require"
)

func TestCSVImporter_Run(t *testing.T) {
	store := memory.New()
	seller := store.SeedUser("seller", false)
	csvData := `name,description,category,price,quantity
Desk Lamp,Warm white,Lighting,19.99,12
Floor Lamp,,Lighting,49.50,3

Stool,Oak,,25,`

	imp := NewCSVImporter(strings.NewReader(csvData), store, store.Products(), store.Categories(), seller.ID, nil)
	count, err := imp.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)

	products, err := store.Products().List(context.Background(), nil, productrepo.ListFilter{SellerID: seller.ID})
	require.NoError(t, err)
	require.Len(t, products, 3)

	byName := map[string]domain.Product{}
	for _, p := range products {
		byName[p.Name] = p
	}
	require.Equal(t, "Lighting", byName["Desk Lamp"].CategoryName)
	require.Equal(t, "19.99", byName["Desk Lamp"].Price.StringFixed(2))
	require.Equal(t, 12, byName["Desk Lamp"].Quantity)
	require.Equal(t, domain.DefaultCategory, byName["Stool"].CategoryName)
	require.Zero(t, byName["Stool"].Quantity)

	cats, err := store.Categories().List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, cats, 2)
}

func TestCSVImporter_RerunUpdatesInPlace(t *testing.T) {
	store := memory.New()
	seller := store.SeedUser("seller", false)
	ctx := context.Background()

	_, err := NewCSVImporter(strings.NewReader("name,price,quantity\nLamp,10.00,1\n"), store, store.Products(), store.Categories(), seller.ID, nil).Run(ctx)
	require.NoError(t, err)
	_, err = NewCSVImporter(strings.NewReader("name,price,quantity\nLamp,12.00,7\n"), store, store.Products(), store.Categories(), seller.ID, nil).Run(ctx)
	require.NoError(t, err)

	products, err := store.Products().List(ctx, nil, productrepo.ListFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "12.00", products[0].Price.StringFixed(2))
	require.Equal(t, 7, products[0].Quantity)
}

func TestCSVImporter_BadRowImportsNothing(t *testing.T) {
	store := memory.New()
	seller := store.SeedUser("seller", false)
	csvData := "name,price\nLamp,10.00\nChair,-3\n"

	_, err := NewCSVImporter(strings.NewReader(csvData), store, store.Products(), store.Categories(), seller.ID, nil).Run(context.Background())
	require.ErrorContains(t, err, "row 3")

	products, err := store.Products().List(context.Background(), nil, productrepo.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestCSVImporter_MissingColumns(t *testing.T) {
	store := memory.New()
	_, err := NewCSVImporter(strings.NewReader("title,cost\nLamp,1\n"), store, store.Products(), store.Categories(), "seller", nil).Run(context.Background())
	require.ErrorContains(t, err, "missing required column")
}
