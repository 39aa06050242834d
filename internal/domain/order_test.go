package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrderTotalCostUsesCurrentPrices(t *testing.T) {
	order := Order{Items: []OrderItem{
		{ProductName: "X", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductName: "Y", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1},
	}}
	require.Equal(t, "25.00", order.TotalCost().StringFixed(2))

	order.Items[0].UnitPrice = decimal.RequireFromString("12.50")
	require.Equal(t, "30.00", order.TotalCost().StringFixed(2))
}

func TestLineCostRoundsToCents(t *testing.T) {
	require.Equal(t, "3.33", LineCost(decimal.RequireFromString("1.111"), 3).StringFixed(2))
}

func TestParseOrderStatus(t *testing.T) {
	for in, want := range map[string]OrderStatus{
		"pending": OrderPending, "P": OrderPending,
		"Completed": OrderCompleted, "c": OrderCompleted,
		"cancelled": OrderCancelled, "X": OrderCancelled,
	} {
		got, ok := ParseOrderStatus(in)
		require.True(t, ok, in)
		require.Equal(t, want, got)
	}
	_, ok := ParseOrderStatus("shipped")
	require.False(t, ok)
}

func TestInsufficientProducts(t *testing.T) {
	items := []OrderItem{
		{ProductName: "Lamp", Quantity: 3, Stock: 2},
		{ProductName: "Desk", Quantity: 1, Stock: 1},
		{ProductName: "Chair", Quantity: 1, Stock: 0},
	}
	require.Equal(t, []string{"Lamp", "Chair"}, InsufficientProducts(items))
}

func TestValidPrice(t *testing.T) {
	require.True(t, ValidPrice(decimal.RequireFromString("19.99")))
	require.False(t, ValidPrice(decimal.RequireFromString("-1")))
	require.False(t, ValidPrice(decimal.RequireFromString("1.005")))
}
