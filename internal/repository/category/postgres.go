package category

import (
	"context"

	"storefront/internal/db"
	"storefront/internal/domain"

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
	return &postgresRepo{logger: logger.Named("category_repo")}
}

func (r *postgresRepo) List(ctx context.Context, q db.Querier) ([]domain.Category, error) {
	rows, err := q.Query(ctx, `SELECT id::text, name, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, name string) (*domain.Category, error) {
	var c domain.Category
	err := q.QueryRow(ctx, `
INSERT INTO categories (name)
VALUES ($1)
RETURNING id::text, name, created_at
`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Debug("category created", zap.String("category_id", c.ID), zap.String("name", c.Name))
	return &c, nil
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, q db.Querier, name string) (*domain.Category, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	var c domain.Category
	err := q.QueryRow(ctx, `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text, name, created_at
`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
