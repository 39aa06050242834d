package address

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
	return &postgresRepo{logger: logger.Named("address_repo")}
}

const addressColumns = `id::text, user_id::text, kind, country, city, street_address, apartment_address, postal_code, created_at, updated_at`

func (r *postgresRepo) Get(ctx context.Context, q db.Querier, id string) (*domain.Address, error) {
	return scan(q.QueryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
}

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, a domain.Address) (*domain.Address, error) {
	out, err := scan(q.QueryRow(ctx, `
INSERT INTO addresses (user_id, kind, country, city, street_address, apartment_address, postal_code)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+addressColumns,
		a.UserID, string(a.Kind), a.Country, a.City, a.StreetAddress, a.ApartmentAddress, a.PostalCode,
	))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("address created", zap.String("address_id", out.ID), zap.String("kind", string(out.Kind)))
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, q db.Querier, a domain.Address) (*domain.Address, error) {
	return scan(q.QueryRow(ctx, `
UPDATE addresses
SET country = $2,
    city = $3,
    street_address = $4,
    apartment_address = $5,
    postal_code = $6,
    updated_at = now()
WHERE id = $1
RETURNING `+addressColumns,
		a.ID, a.Country, a.City, a.StreetAddress, a.ApartmentAddress, a.PostalCode,
	))
}

func scan(row pgx.Row) (*domain.Address, error) {
	var (
		a    domain.Address
		kind string
	)
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&kind,
		&a.Country,
		&a.City,
		&a.StreetAddress,
		&a.ApartmentAddress,
		&a.PostalCode,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if db.IsMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Kind = domain.AddressKind(kind)
	return &a, nil
}
