package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/daily-journal/internal/models"
)

// GraphRepository handles commit graph links
type GraphRepository struct {
	db *DB
}

// NewGraphRepository creates a new graph repository
func NewGraphRepository(db *DB) *GraphRepository {
	return &GraphRepository{db: db}
}

// Save records the link and sets the back-pointer on the user profile
func (r *GraphRepository) Save(ctx context.Context, link *models.GraphLink) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO graph_links (user_key, display_name, graph_url, day)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`
		if err := tx.QueryRowContext(ctx, query, link.Key, link.DisplayName, link.GraphURL, link.Day).Scan(&link.CreatedAt); err != nil {
			return fmt.Errorf("failed to save graph link: %w", err)
		}

		update := `
			INSERT INTO users (user_key, display_name, graph_url)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_key) DO UPDATE SET graph_url = EXCLUDED.graph_url, updated_at = now()
		`
		if _, err := tx.ExecContext(ctx, update, link.Key, link.DisplayName, link.GraphURL); err != nil {
			return fmt.Errorf("failed to set graph url: %w", err)
		}
		return nil
	})
}

// Get returns the user's most recent graph link or ErrNotFound
func (r *GraphRepository) Get(ctx context.Context, key models.UserKey) (*models.GraphLink, error) {
	query := `
		SELECT user_key, display_name, graph_url, day, created_at
		FROM graph_links
		WHERE user_key = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	link := &models.GraphLink{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&link.Key, &link.DisplayName, &link.GraphURL, &link.Day, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("graph link not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get graph link: %w", err)
	}
	return link, nil
}
