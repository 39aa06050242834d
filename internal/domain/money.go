package domain

import "github.com/shopspring/decimal"

// LineCost is quantity × unit price rounded to cents. It is always computed
// from the product's current price.
func LineCost(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// ValidPrice reports whether p is non-negative with at most two decimals.
func ValidPrice(p decimal.Decimal) bool {
	return !p.IsNegative() && p.Equal(p.Round(2))
}
