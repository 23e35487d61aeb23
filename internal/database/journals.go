package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/daily-journal/internal/models"
)

// JournalRepository stores generated journal artifacts
type JournalRepository struct {
	db *DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Save upserts the artifact for (user, display name, day)
func (r *JournalRepository) Save(ctx context.Context, journal *models.Journal) error {
	query := `
		INSERT INTO journals (user_key, display_name, day, filename, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_key, display_name, day) DO UPDATE SET
			filename = EXCLUDED.filename,
			data = EXCLUDED.data,
			created_at = now()
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		journal.Key,
		journal.DisplayName,
		journal.Day,
		journal.Filename,
		journal.Data,
	).Scan(&journal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	return nil
}

// Get returns the latest artifact stored for the user's day
func (r *JournalRepository) Get(ctx context.Context, key models.UserKey, day models.Day) (*models.Journal, error) {
	query := `
		SELECT user_key, display_name, day, filename, data, created_at
		FROM journals
		WHERE user_key = $1 AND day = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	journal := &models.Journal{}
	err := r.db.QueryRowContext(ctx, query, key, day).Scan(
		&journal.Key,
		&journal.DisplayName,
		&journal.Day,
		&journal.Filename,
		&journal.Data,
		&journal.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}
	return journal, nil
}
