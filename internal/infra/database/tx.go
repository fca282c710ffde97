package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance_notice_bot/internal/domain/store"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// SQLSTATE codes worth retrying.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type txKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction bound to ctx, or the pool.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// PostgresTransactor runs store transactions at SERIALIZABLE isolation and retries
// serialization failures and deadlocks a bounded number of times.
type PostgresTransactor struct {
	db          *sql.DB
	maxAttempts int
	logger      *logrus.Entry
}

var _ store.Transactor = (*PostgresTransactor)(nil)

func NewPostgresTransactor(db *sql.DB, maxAttempts int, logger *logrus.Entry) *PostgresTransactor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PostgresTransactor{db: db, maxAttempts: maxAttempts, logger: logger}
}

func (t *PostgresTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(txKey{}).(*sql.Tx); nested {
		return fn(ctx)
	}
	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		t.logger.WithError(err).WithField("attempt", attempt).Warn("Transaction conflict, retrying")
	}
	return fmt.Errorf("%w: %v", store.ErrConflict, err)
}

func (t *PostgresTransactor) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	txn, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if err := fn(context.WithValue(ctx, txKey{}, txn)); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
}
