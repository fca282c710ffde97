package database

import (
	"context"
	"database/sql"
	"fmt"

	"attendance_notice_bot/internal/domain/action"
)

type PostgresSentActionRepository struct {
	db *sql.DB
}

var _ action.SentRepository = (*PostgresSentActionRepository)(nil)

func NewPostgresSentActionRepository(db *sql.DB) *PostgresSentActionRepository {
	return &PostgresSentActionRepository{db: db}
}

const sentActionColumns = `id, sender_id, child_name, grade, classroom, category, when_value, reason, registered_date, started_at, created_at`

func (r *PostgresSentActionRepository) Create(ctx context.Context, s *action.SentAction) error {
	query := `INSERT INTO sent_actions (sender_id, child_name, grade, classroom, category, when_value, reason, registered_date, started_at, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               ON CONFLICT (sender_id, started_at) DO NOTHING
               RETURNING id`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		s.SenderID, s.ChildName, s.Grade, s.Classroom, s.Category, s.When, s.Reason, s.RegisteredDate, s.StartedAt, s.CreatedAt,
	).Scan(&s.ID)
	if err == sql.ErrNoRows { // duplicate delivery, already archived
		return nil
	}
	if err != nil {
		return fmt.Errorf("error creating sent action: %w", err)
	}
	return nil
}

func (r *PostgresSentActionRepository) ListAll(ctx context.Context) ([]*action.SentAction, error) {
	query := `SELECT ` + sentActionColumns + ` FROM sent_actions ORDER BY created_at`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying sent actions: %w", err)
	}
	defer rows.Close()
	return scanSentActions(rows)
}

func (r *PostgresSentActionRepository) ListByRegisteredDate(ctx context.Context, date string) ([]*action.SentAction, error) {
	query := `SELECT ` + sentActionColumns + ` FROM sent_actions WHERE registered_date = $1 ORDER BY created_at`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("error querying sent actions by date: %w", err)
	}
	defer rows.Close()
	return scanSentActions(rows)
}

// Helper to scan multiple rows
func scanSentActions(rows *sql.Rows) ([]*action.SentAction, error) {
	items := make([]*action.SentAction, 0)
	for rows.Next() {
		s := action.SentAction{}
		if err := rows.Scan(
			&s.ID, &s.SenderID, &s.ChildName, &s.Grade, &s.Classroom,
			&s.Category, &s.When, &s.Reason, &s.RegisteredDate, &s.StartedAt, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning sent action row: %w", err)
		}
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent action rows: %w", err)
	}
	return items, nil
}
