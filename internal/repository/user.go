package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/smartnotes/smartnotes/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

const userColumns = `id, username, password_hash, is_staff, created_at`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.IsStaff,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByUsername retrieves a user by their exact username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// ListUsers returns users ordered by username.
func (r *Repository) ListUsers(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// DeleteUser removes a user and their notes in one transaction and returns
// the IDs of the notes removed. The notes are deleted explicitly rather than
// left to the foreign key cascade so their IDs can be reported.
func (r *Repository) DeleteUser(ctx context.Context, id string) ([]string, error) {
	var noteIDs []string
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `DELETE FROM notes WHERE user_id = $1 RETURNING id`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user notes: %w", err)
		}
		noteIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to collect deleted note ids: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return noteIDs, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsStaff,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
