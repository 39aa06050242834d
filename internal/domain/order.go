package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus accepts the status names and their single-letter codes
// (P, C, X). Anything else is rejected.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "p":
		return OrderPending, true
	case "completed", "c":
		return OrderCompleted, true
	case "cancelled", "x":
		return OrderCancelled, true
	}
	return "", false
}

type Order struct {
	ID                string      `json:"id"`
	BuyerID           string      `json:"buyerId"`
	BuyerName         string      `json:"buyer,omitempty"`
	Status            OrderStatus `json:"status"`
	ShippingAddressID *string     `json:"-"`
	BillingAddressID  *string     `json:"-"`
	Items             []OrderItem `json:"items"`
	ShippingAddress   *Address    `json:"shippingAddress,omitempty"`
	BillingAddress    *Address    `json:"billingAddress,omitempty"`
	Payment           *Payment    `json:"payment,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

func (o Order) IsPending() bool {
	return o.Status == OrderPending
}

// TotalCost sums line costs at current product prices.
func (o Order) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Cost())
	}
	return total.Round(2)
}

// OrderItem is an (order, product) line. Its cost is never stored.
type OrderItem struct {
	ID                 string          `json:"id"`
	OrderID            string          `json:"orderId"`
	ProductID          string          `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription,omitempty"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	Stock              int             `json:"-"`
	Quantity           int             `json:"quantity"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (i OrderItem) Cost() decimal.Decimal {
	return LineCost(i.UnitPrice, i.Quantity)
}

// InsufficientProducts returns the names of items whose quantity exceeds
// the product's current stock, in item order.
func InsufficientProducts(items []OrderItem) []string {
	var names []string
	for _, it := range items {
		if it.Quantity > it.Stock {
			names = append(names, it.ProductName)
		}
	}
	return names
}
