package domain

import "time"

type AddressKind string

const (
	AddressShipping AddressKind = "shipping"
	AddressBilling  AddressKind = "billing"
)

type Address struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId"`
	Kind             AddressKind `json:"kind"`
	Country          string      `json:"country"`
	City             string      `json:"city"`
	StreetAddress    string      `json:"streetAddress"`
	ApartmentAddress string      `json:"apartmentAddress,omitempty"`
	PostalCode       string      `json:"postalCode,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

type PaymentMethod string

const (
	PaymentPayPal PaymentMethod = "paypal"
	PaymentStripe PaymentMethod = "stripe"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentPayPal || m == PaymentStripe
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// Payment is one-to-one with an order. Status only moves to completed via
// payment confirmation.
type Payment struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"orderId"`
	Method    PaymentMethod `json:"method"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
