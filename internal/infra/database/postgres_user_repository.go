package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance_notice_bot/internal/domain/user"
)

type PostgresUserRepository struct {
	db *sql.DB
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `sender_id, language, role_teacher, child_name, grade, classroom, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.SenderID, &u.Language, &u.RoleTeacher, &u.ChildName, &u.Grade, &u.Classroom, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *PostgresUserRepository) GetBySenderID(ctx context.Context, senderID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE sender_id = $1`
	u, err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, query, senderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("error getting user by sender ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Save(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (` + userColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
               ON CONFLICT (sender_id) DO UPDATE
               SET language = EXCLUDED.language, role_teacher = EXCLUDED.role_teacher,
                   child_name = EXCLUDED.child_name, grade = EXCLUDED.grade,
                   classroom = EXCLUDED.classroom, updated_at = NOW()
               RETURNING updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		u.SenderID, u.Language, u.RoleTeacher, u.ChildName, u.Grade, u.Classroom, u.CreatedAt,
	).Scan(&u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}
	return nil
}

// Delete cascades to the user's in-flight action through the foreign key.
func (r *PostgresUserRepository) Delete(ctx context.Context, senderID string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE sender_id = $1`, senderID); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
