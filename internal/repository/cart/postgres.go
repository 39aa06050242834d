package cart

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type postgresRepo struct {
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{logger: logger.Named("cart_repo")}
}

const itemSelect = `
SELECT ci.id::text, ci.cart_id::text, ci.product_id::text, p.name, p.seller_id::text, p.price, p.quantity,
       ci.quantity, ci.created_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
`

func (r *postgresRepo) GetOrCreate(ctx context.Context, q db.Querier, userID string) (*domain.Cart, error) {
	if _, err := q.Exec(ctx, `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		return nil, err
	}

	var c domain.Cart
	if err := q.QueryRow(ctx, `
SELECT id::text, user_id::text, created_at
FROM carts
WHERE user_id = $1
`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt); err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, q, itemSelect+"WHERE ci.cart_id = $1 ORDER BY ci.created_at ASC, ci.id", c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

func (r *postgresRepo) ListItems(ctx context.Context, q db.Querier, userID string) ([]domain.CartItem, error) {
	return r.listItems(ctx, q, itemSelect+`
JOIN carts c ON c.id = ci.cart_id
WHERE c.user_id = $1
ORDER BY ci.created_at ASC, ci.id`, userID)
}

func (r *postgresRepo) GetItem(ctx context.Context, q db.Querier, cartID, itemID string) (*domain.CartItem, error) {
	item, err := scanItem(q.QueryRow(ctx, itemSelect+"WHERE ci.cart_id = $1 AND ci.id = $2", cartID, itemID))
	if err != nil {
		if db.IsMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *postgresRepo) AddItem(ctx context.Context, q db.Querier, cartID, productID string, quantity int) (*domain.CartItem, error) {
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
RETURNING id::text
`, cartID, productID, quantity).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Debug("cart item added", zap.String("cart_id", cartID), zap.String("product_id", productID))
	return r.GetItem(ctx, q, cartID, id)
}

func (r *postgresRepo) UpdateItemQuantity(ctx context.Context, q db.Querier, cartID, itemID string, quantity int) error {
	cmd, err := q.Exec(ctx, `
UPDATE cart_items
SET quantity = $1
WHERE id = $2 AND cart_id = $3
`, quantity, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteItem(ctx context.Context, q db.Querier, cartID, itemID string) error {
	cmd, err := q.Exec(ctx, `
DELETE FROM cart_items
WHERE id = $1 AND cart_id = $2
`, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) listItems(ctx context.Context, q db.Querier, stmt string, args ...any) ([]domain.CartItem, error) {
	rows, err := q.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CartItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*domain.CartItem, error) {
	var it domain.CartItem
	if err := row.Scan(
		&it.ID,
		&it.CartID,
		&it.ProductID,
		&it.ProductName,
		&it.SellerID,
		&it.UnitPrice,
		&it.Stock,
		&it.Quantity,
		&it.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}
