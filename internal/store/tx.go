/**
 * @description
 * Context-carried database transactions. The orchestrators in internal/app
 * wrap each money-movement operation in WithTransaction; every repository
 * method then executes on the same pgx.Tx by pulling it back out of the
 * context, falling back to the pool for standalone reads.
 */

package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txKey is the key type for storing a transaction in the context.
type txKey struct{}

// TxManager runs a function inside one database transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgxTxManager implements TxManager on a pgx connection pool.
type PgxTxManager struct {
	pool *pgxpool.Pool
}

// NewPgxTxManager creates a new PgxTxManager.
func NewPgxTxManager(pool *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{pool: pool}
}

// WithTransaction begins a transaction, stores it in the context, and runs
// fn. If fn returns an error the transaction is rolled back and the error
// returned unchanged; otherwise the transaction is committed.
func (tm *PgxTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			log.Printf("level=error component=store msg=\"rollback failed\" err=%v", rbErr)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TxFromContext retrieves the transaction from the context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}
