// File: backend/services/integrity-service/internal/domain/repository/postgres/transaction.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txKey is the context key carrying an open transaction.
type txKey struct{}

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx.
// Repositories resolve their querier from the context so a call inside
// WithinTransaction automatically joins the caller's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TransactionManager provides the atomic unit of work every mutating core
// operation runs inside.
type TransactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a new transaction manager over the pool.
func NewTransactionManager(pool *pgxpool.Pool) *TransactionManager {
	return &TransactionManager{pool: pool}
}

// GetTx extracts the transaction from the context, if one is open.
func GetTx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// querierFrom returns the context transaction when present, the pool
// otherwise.
func querierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return pool
}

// WithinTransaction runs fn inside a transaction. A nested call joins the
// existing transaction rather than opening a second one. If fn returns an
// error the transaction rolls back and no partial effect survives.
func (tm *TransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := tm.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
