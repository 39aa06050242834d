package user

import (
	"context"
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
	return &postgresRepo{logger: logger.Named("user_repo")}
}

const userColumns = `id::text, email, username, first_name, last_name, password_hash, is_staff, is_active, created_at`

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, u domain.User) (*domain.User, error) {
	const stmt = `
INSERT INTO users (email, username, first_name, last_name, password_hash, is_staff, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns
	out, err := r.scan(q.QueryRow(ctx, stmt,
		strings.ToLower(u.Email),
		u.Username,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		u.IsStaff,
		u.IsActive,
	))
	if err != nil && db.IsUniqueViolation(err) {
		return nil, domain.ErrAlreadyExists
	}
	return out, err
}

func (r *postgresRepo) GetByEmail(ctx context.Context, q db.Querier, email string) (*domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scan(q.QueryRow(ctx, stmt, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, q db.Querier, id string) (*domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scan(q.QueryRow(ctx, stmt, id))
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.IsStaff,
		&u.IsActive,
		&u.CreatedAt,
	)
	if err != nil {
		if db.IsMissing(err) {
			return nil, domain.ErrNotFound
		}
		if !db.IsUniqueViolation(err) {
			r.logger.Error("scan user", zap.Error(err))
		}
		return nil, err
	}
	return &u, nil
}
