package httpserver

import (
	"time"

	"storefront/internal/domain"
)

// Money is rendered as a fixed two-decimal string.

type productResponse struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"sellerId"`
	Category    string    `json:"category,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProduct(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Category:    p.CategoryName,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type cartItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Cost        string `json:"cost"`
}

type cartResponse struct {
	ID    string             `json:"id"`
	Items []cartItemResponse `json:"items"`
	Total string             `json:"total"`
}

func toCartItem(it domain.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:          it.ID,
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		UnitPrice:   it.UnitPrice.StringFixed(2),
		Quantity:    it.Quantity,
		Cost:        it.Cost().StringFixed(2),
	}
}

func toCart(c domain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, toCartItem(it))
	}
	return cartResponse{ID: c.ID, Items: items, Total: c.Total().StringFixed(2)}
}

type orderItemResponse struct {
	ID                 string `json:"id"`
	ProductID          string `json:"productId"`
	ProductName        string `json:"productName"`
	ProductDescription string `json:"productDescription,omitempty"`
	UnitPrice          string `json:"unitPrice"`
	Quantity           int    `json:"quantity"`
	Cost               string `json:"cost"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Buyer           string              `json:"buyer"`
	Status          domain.OrderStatus  `json:"status"`
	Items           []orderItemResponse `json:"items"`
	TotalCost       string              `json:"totalCost"`
	ShippingAddress *domain.Address     `json:"shippingAddress"`
	BillingAddress  *domain.Address     `json:"billingAddress"`
	Payment         *domain.Payment     `json:"payment"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toOrder(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			ProductDescription: it.ProductDescription,
			UnitPrice:          it.UnitPrice.StringFixed(2),
			Quantity:           it.Quantity,
			Cost:               it.Cost().StringFixed(2),
		})
	}
	return orderResponse{
		ID:              o.ID,
		Buyer:           o.BuyerName,
		Status:          o.Status,
		Items:           items,
		TotalCost:       o.TotalCost().StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Payment:         o.Payment,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	IsStaff   bool   `json:"isStaff"`
}

func toUser(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
	}
}
