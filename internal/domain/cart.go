package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CartItem is a (cart, product) line. Product fields are read at query time.
type CartItem struct {
	ID          string          `json:"id"`
	CartID      string          `json:"cartId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	SellerID    string          `json:"-"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Stock       int             `json:"-"`
	Quantity    int             `json:"quantity"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (i CartItem) Cost() decimal.Decimal {
	return LineCost(i.UnitPrice, i.Quantity)
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Cost())
	}
	return total.Round(2)
}
