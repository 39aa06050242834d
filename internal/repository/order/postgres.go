package order

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
	return &postgresRepo{logger: logger.Named("order_repo")}
}

const orderSelect = `
SELECT o.id::text, o.buyer_id::text, trim(u.first_name || ' ' || u.last_name), u.username, o.status,
       o.shipping_address_id::text, o.billing_address_id::text, o.created_at, o.updated_at
FROM orders o
JOIN users u ON u.id = o.buyer_id
`

const itemSelect = `
SELECT oi.id::text, oi.order_id::text, oi.product_id::text, p.name, p.description, p.price, p.quantity,
       oi.quantity, oi.created_at, oi.updated_at
FROM order_items oi
JOIN products p ON p.id = oi.product_id
`

func (r *postgresRepo) FindOrCreatePending(ctx context.Context, q db.Querier, buyerID string) (*domain.Order, bool, error) {
	// Relies on the partial unique index orders_one_pending_per_buyer.
	cmd, err := q.Exec(ctx, `
INSERT INTO orders (buyer_id, status)
VALUES ($1, 'pending')
ON CONFLICT (buyer_id) WHERE status = 'pending' DO NOTHING
`, buyerID)
	if err != nil {
		return nil, false, err
	}
	created := cmd.RowsAffected() == 1

	o, err := scanOrder(q.QueryRow(ctx, orderSelect+"WHERE o.buyer_id = $1 AND o.status = 'pending'", buyerID))
	if err != nil {
		return nil, false, err
	}
	if created {
		r.logger.Debug("pending order created", zap.String("order_id", o.ID), zap.String("buyer_id", buyerID))
	}
	return o, created, nil
}

func (r *postgresRepo) Get(ctx context.Context, q db.Querier, id string) (*domain.Order, error) {
	return r.get(ctx, q, orderSelect+"WHERE o.id = $1", id)
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, q db.Querier, id string) (*domain.Order, error) {
	return r.get(ctx, q, orderSelect+"WHERE o.id = $1 FOR UPDATE OF o", id)
}

func (r *postgresRepo) get(ctx context.Context, q db.Querier, stmt, id string) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, stmt, id))
	if err != nil {
		if db.IsMissing(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByBuyer(ctx context.Context, q db.Querier, buyerID string, status *domain.OrderStatus) ([]domain.Order, error) {
	stmt := orderSelect + "WHERE o.buyer_id = $1"
	args := []any{buyerID}
	if status != nil {
		stmt += " AND o.status = $2"
		args = append(args, string(*status))
	}
	stmt += " ORDER BY o.created_at DESC, o.id"

	rows, err := q.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Items(ctx context.Context, q db.Querier, orderID string) ([]domain.OrderItem, error) {
	byOrder, err := r.ItemsForOrders(ctx, q, []string{orderID})
	if err != nil {
		return nil, err
	}
	return byOrder[orderID], nil
}

func (r *postgresRepo) ItemsForOrders(ctx context.Context, q db.Querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, itemSelect+`
WHERE oi.order_id = ANY($1::uuid[])
ORDER BY oi.created_at ASC, oi.id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ProductID,
			&it.ProductName,
			&it.ProductDescription,
			&it.UnitPrice,
			&it.Stock,
			&it.Quantity,
			&it.CreatedAt,
			&it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *postgresRepo) InsertItems(ctx context.Context, q db.Querier, orderID string, items []NewItem) error {
	if len(items) == 0 {
		return nil
	}
	productIDs := make([]string, len(items))
	quantities := make([]int32, len(items))
	for i, it := range items {
		productIDs[i] = it.ProductID
		quantities[i] = int32(it.Quantity)
	}
	_, err := q.Exec(ctx, `
INSERT INTO order_items (order_id, product_id, quantity)
SELECT $1::uuid, t.product_id, t.quantity
FROM unnest($2::uuid[], $3::int[]) AS t(product_id, quantity)
`, orderID, productIDs, quantities)
	return err
}

func (r *postgresRepo) UpdateItemQuantity(ctx context.Context, q db.Querier, itemID string, quantity int) error {
	cmd, err := q.Exec(ctx, `
UPDATE order_items
SET quantity = $1, updated_at = now()
WHERE id = $2
`, quantity, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteItemsExcept(ctx context.Context, q db.Querier, orderID string, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	cmd, err := q.Exec(ctx, `
DELETE FROM order_items
WHERE order_id = $1 AND NOT (product_id = ANY($2::uuid[]))
`, orderID, keep)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) TransitionStatus(ctx context.Context, q db.Querier, id string, from, to domain.OrderStatus) (bool, error) {
	cmd, err := q.Exec(ctx, `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresRepo) SetAddresses(ctx context.Context, q db.Querier, id string, shippingID, billingID *string) error {
	cmd, err := q.Exec(ctx, `
UPDATE orders
SET shipping_address_id = $2,
    billing_address_id = $3,
    updated_at = now()
WHERE id = $1
`, id, shippingID, billingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, q db.Querier, id string) error {
	cmd, err := q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o        domain.Order
		fullName string
		username string
		status   string
	)
	if err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&fullName,
		&username,
		&status,
		&o.ShippingAddressID,
		&o.BillingAddressID,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.BuyerName = fullName
	if o.BuyerName == "" {
		o.BuyerName = username
	}
	return &o, nil
}
