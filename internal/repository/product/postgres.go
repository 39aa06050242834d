package product

import (
	"context"
	"fmt"
	"strings"

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
	return &postgresRepo{logger: logger.Named("product_repo")}
}

const productSelect = `
SELECT p.id::text, p.seller_id::text, p.category_id::text, COALESCE(c.name, ''), p.name, p.description,
       p.price, p.quantity, p.created_at, p.updated_at
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
`

func (r *postgresRepo) List(ctx context.Context, q db.Querier, f ListFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("lower(c.name) = lower($%d)", len(args)))
	}
	if f.SellerID != "" {
		args = append(args, f.SellerID)
		where = append(where, fmt.Sprintf("p.seller_id = $%d", len(args)))
	}

	stmt := productSelect
	if len(where) > 0 {
		stmt += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	stmt += "ORDER BY p.created_at DESC, p.id\n"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		stmt += fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := q.Query(ctx, stmt, args...)
	if err != nil {
		r.logger.Error("list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, q db.Querier, id string) (*domain.Product, error) {
	p, err := scanProduct(q.QueryRow(ctx, productSelect+"WHERE p.id = $1", id))
	if err != nil {
		if db.IsMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error) {
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO products (seller_id, category_id, name, description, price, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text
`, p.SellerID, p.CategoryID, p.Name, p.Description, p.Price, p.Quantity).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Debug("product created", zap.String("product_id", id), zap.String("seller_id", p.SellerID))
	return r.Get(ctx, q, id)
}

func (r *postgresRepo) Update(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error) {
	cmd, err := q.Exec(ctx, `
UPDATE products
SET category_id = $2,
    name = $3,
    description = $4,
    price = $5,
    quantity = $6,
    updated_at = now()
WHERE id = $1
`, p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.Quantity)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, q, p.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, q db.Querier, id string) error {
	cmd, err := q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Upsert(ctx context.Context, q db.Querier, p domain.Product) (*domain.Product, error) {
	var id string
	err := q.QueryRow(ctx, `
INSERT INTO products (seller_id, category_id, name, description, price, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (seller_id, name) DO UPDATE
SET category_id = EXCLUDED.category_id,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    quantity = EXCLUDED.quantity,
    updated_at = now()
RETURNING id::text
`, p.SellerID, p.CategoryID, p.Name, p.Description, p.Price, p.Quantity).Scan(&id)
	if err != nil {
		r.logger.Error("upsert product", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	return r.Get(ctx, q, id)
}

func (r *postgresRepo) DecrementStock(ctx context.Context, q db.Querier, id string, qty int) error {
	cmd, err := q.Exec(ctx, `
UPDATE products
SET quantity = quantity - $2,
    updated_at = now()
WHERE id = $1
`, id, qty)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.SellerID,
		&p.CategoryID,
		&p.CategoryName,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Quantity,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
