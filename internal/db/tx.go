package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept it so a caller decides whether a statement runs
// inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Runner hands out queriers: the shared pool for standalone reads and a
// scoped transaction for multi-statement writes.
type Runner interface {
	Querier() Querier
	InTx(ctx context.Context, fn func(q Querier) error) error
}

type poolRunner struct {
	pool *pgxpool.Pool
}

// NewRunner returns a Runner backed by the pgx pool.
func NewRunner(pool *pgxpool.Pool) Runner {
	return &poolRunner{pool: pool}
}

func (r *poolRunner) Querier() Querier {
	return r.pool
}

// InTx commits when fn returns nil and rolls back on every other exit,
// including panics.
func (r *poolRunner) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
