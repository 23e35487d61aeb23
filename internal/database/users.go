package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/daily-journal/internal/models"
)

// UserRepository handles user profile operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_key, display_name, pending_state, graph_url, free_text_status, created_at, updated_at`

// Upsert creates the profile or refreshes its display name
func (r *UserRepository) Upsert(ctx context.Context, key models.UserKey, displayName string) (*models.UserProfile, error) {
	query := `
		INSERT INTO users (user_key, display_name)
		VALUES ($1, $2)
		ON CONFLICT (user_key) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = now()
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, key, displayName))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// Get retrieves a profile or ErrNotFound
func (r *UserRepository) Get(ctx context.Context, key models.UserKey) (*models.UserProfile, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_key = $1`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns every known profile ordered by key
func (r *UserRepository) List(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY user_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.UserProfile
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

// GetPendingState returns the stored conversation token; unknown users have none
func (r *UserRepository) GetPendingState(ctx context.Context, key models.UserKey) (string, error) {
	var state string
	err := r.db.QueryRowContext(ctx, `SELECT pending_state FROM users WHERE user_key = $1`, key).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get pending state: %w", err)
	}
	return state, nil
}

// SetPendingState stores the conversation token, creating the profile when needed
func (r *UserRepository) SetPendingState(ctx context.Context, key models.UserKey, state string) error {
	query := `
		INSERT INTO users (user_key, pending_state)
		VALUES ($1, $2)
		ON CONFLICT (user_key) DO UPDATE SET pending_state = EXCLUDED.pending_state, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, key, state); err != nil {
		return fmt.Errorf("failed to set pending state: %w", err)
	}
	return nil
}

// SetFreeTextStatus stores the user's status line
func (r *UserRepository) SetFreeTextStatus(ctx context.Context, key models.UserKey, status string) error {
	query := `
		INSERT INTO users (user_key, free_text_status)
		VALUES ($1, $2)
		ON CONFLICT (user_key) DO UPDATE SET free_text_status = EXCLUDED.free_text_status, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, key, status); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*models.UserProfile, error) {
	user := &models.UserProfile{}
	var graphURL, status sql.NullString
	err := row.Scan(
		&user.Key,
		&user.DisplayName,
		&user.PendingState,
		&graphURL,
		&status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if graphURL.Valid {
		user.GraphURL = &graphURL.String
	}
	if status.Valid {
		user.FreeTextStatus = &status.String
	}
	return user, nil
}
