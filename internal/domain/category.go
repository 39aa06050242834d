package domain

import "time"

// DefaultCategory is assigned to products created without a category.
const DefaultCategory = "Others"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
