package domain

import (
	"strings"
	"time"
)

// User is a registered account. Staff users may act on any order.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"isStaff"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Actor is the authenticated principal behind a request.
type Actor struct {
	UserID  string
	IsStaff bool
}
