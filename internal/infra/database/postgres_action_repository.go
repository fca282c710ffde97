package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance_notice_bot/internal/domain/action"
)

type PostgresActionRepository struct {
	db *sql.DB
}

var _ action.Repository = (*PostgresActionRepository)(nil)

func NewPostgresActionRepository(db *sql.DB) *PostgresActionRepository {
	return &PostgresActionRepository{db: db}
}

func (r *PostgresActionRepository) GetBySenderID(ctx context.Context, senderID string) (*action.Action, error) {
	query := `SELECT sender_id, category, when_value, reason, created_at FROM actions WHERE sender_id = $1`
	a := &action.Action{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, senderID).Scan(&a.SenderID, &a.Category, &a.When, &a.Reason, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, action.ErrNotFound
		}
		return nil, fmt.Errorf("error getting action by sender ID: %w", err)
	}
	return a, nil
}

func (r *PostgresActionRepository) Save(ctx context.Context, a *action.Action) error {
	query := `INSERT INTO actions (sender_id, category, when_value, reason, created_at)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT (sender_id) DO UPDATE
               SET category = EXCLUDED.category, when_value = EXCLUDED.when_value,
                   reason = EXCLUDED.reason, created_at = EXCLUDED.created_at`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, a.SenderID, a.Category, a.When, a.Reason, a.CreatedAt); err != nil {
		return fmt.Errorf("error saving action: %w", err)
	}
	return nil
}

func (r *PostgresActionRepository) Delete(ctx context.Context, senderID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM actions WHERE sender_id = $1`, senderID); err != nil {
		return fmt.Errorf("error deleting action: %w", err)
	}
	return nil
}

func (r *PostgresActionRepository) DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM actions WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("error deleting stale actions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted actions: %w", err)
	}
	return n, nil
}
