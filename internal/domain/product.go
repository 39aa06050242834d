package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Quantity is the available stock.
type Product struct {
	ID           string          `json:"id"`
	SellerID     string          `json:"sellerId"`
	CategoryID   *string         `json:"categoryId,omitempty"`
	CategoryName string          `json:"category,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
