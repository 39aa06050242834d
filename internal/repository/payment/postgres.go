package payment

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
	return &postgresRepo{logger: logger.Named("payment_repo")}
}

const paymentColumns = `id::text, order_id::text, method, status, created_at, updated_at`

func (r *postgresRepo) GetByOrder(ctx context.Context, q db.Querier, orderID string) (*domain.Payment, error) {
	return scan(q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
}

func (r *postgresRepo) Create(ctx context.Context, q db.Querier, orderID string, method domain.PaymentMethod) (*domain.Payment, error) {
	p, err := scan(q.QueryRow(ctx, `
INSERT INTO payments (order_id, method)
VALUES ($1, $2)
RETURNING `+paymentColumns, orderID, string(method)))
	if err != nil && db.IsUniqueViolation(err) {
		return nil, domain.ErrAlreadyExists
	}
	return p, err
}

func (r *postgresRepo) UpdateMethod(ctx context.Context, q db.Querier, id string, method domain.PaymentMethod) (*domain.Payment, error) {
	return scan(q.QueryRow(ctx, `
UPDATE payments
SET method = $2, updated_at = now()
WHERE id = $1
RETURNING `+paymentColumns, id, string(method)))
}

func (r *postgresRepo) MarkCompleted(ctx context.Context, q db.Querier, id string) (bool, error) {
	cmd, err := q.Exec(ctx, `
UPDATE payments
SET status = 'completed', updated_at = now()
WHERE id = $1 AND status = 'pending'
`, id)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() != 1 {
		r.logger.Debug("payment not pending", zap.String("payment_id", id))
		return false, nil
	}
	return true, nil
}

func scan(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		method string
		status string
	)
	if err := row.Scan(&p.ID, &p.OrderID, &method, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if db.IsMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
