package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance_notice_bot/internal/domain/settings"
)

type PostgresSettingsRepository struct {
	db *sql.DB
}

var _ settings.Repository = (*PostgresSettingsRepository)(nil)

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context, key string) (*settings.Configuration, error) {
	c := &settings.Configuration{Key: key}
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT value, updated_at FROM settings WHERE key = $1`, key).Scan(&c.Email, &c.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("error getting setting %s: %w", key, err)
	}
	return c, nil
}

func (r *PostgresSettingsRepository) Save(ctx context.Context, c *settings.Configuration) error {
	query := `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
               ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
               RETURNING updated_at`
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, c.Key, c.Email).Scan(&c.UpdatedAt); err != nil {
		return fmt.Errorf("error saving setting %s: %w", c.Key, err)
	}
	return nil
}
