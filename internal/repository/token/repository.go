package token

import (
	"context"
	"time"

	"storefront/internal/db"
)

const KindRefresh = "refresh"

// Token is an opaque refresh token. Deleting it revokes the session.
type Token struct {
	Token     string
	UserID    string
	Kind      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, q db.Querier, token Token) error
	Get(ctx context.Context, q db.Querier, token string) (*Token, error)
	Delete(ctx context.Context, q db.Querier, token string) error
}
