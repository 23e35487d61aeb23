package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/daily-journal/internal/models"
)

// DailyEntryRepository handles the one-per-day quote, mood and rating rows
type DailyEntryRepository struct {
	db *DB
}

// NewDailyEntryRepository creates a new daily entry repository
func NewDailyEntryRepository(db *DB) *DailyEntryRepository {
	return &DailyEntryRepository{db: db}
}

// replace deletes the (user, day) row of table and runs insert in the same transaction
func (r *DailyEntryRepository) replace(ctx context.Context, table string, key models.UserKey, day models.Day, insert func(tx *sql.Tx) error) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_key = $1 AND day = $2`, key, day); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		return insert(tx)
	})
}

// SaveQuote replaces the day's quote
func (r *DailyEntryRepository) SaveQuote(ctx context.Context, quote *models.Quote) error {
	return r.replace(ctx, "quotes", quote.Key, quote.Day, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO quotes (user_key, day, text) VALUES ($1, $2, $3)`,
			quote.Key, quote.Day, quote.Text)
		if err != nil {
			return fmt.Errorf("failed to save quote: %w", err)
		}
		return nil
	})
}

// GetQuote returns the day's quote or ErrNotFound
func (r *DailyEntryRepository) GetQuote(ctx context.Context, key models.UserKey, day models.Day) (*models.Quote, error) {
	quote := &models.Quote{}
	err := r.db.QueryRowContext(ctx, `SELECT user_key, day, text FROM quotes WHERE user_key = $1 AND day = $2`, key, day).
		Scan(&quote.Key, &quote.Day, &quote.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quote not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

// SaveMood replaces the day's mood and stores its score on the counter bucket
func (r *DailyEntryRepository) SaveMood(ctx context.Context, mood *models.Mood) error {
	return r.replace(ctx, "moods", mood.Key, mood.Day, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO moods (user_key, day, emoji, score) VALUES ($1, $2, $3, $4)`,
			mood.Key, mood.Day, mood.Emoji, mood.Score)
		if err != nil {
			return fmt.Errorf("failed to save mood: %w", err)
		}
		return setMoodScore(ctx, tx, mood.Key, mood.Day, mood.Score)
	})
}

// GetMood returns the day's mood or ErrNotFound
func (r *DailyEntryRepository) GetMood(ctx context.Context, key models.UserKey, day models.Day) (*models.Mood, error) {
	mood := &models.Mood{}
	err := r.db.QueryRowContext(ctx, `SELECT user_key, day, emoji, score FROM moods WHERE user_key = $1 AND day = $2`, key, day).
		Scan(&mood.Key, &mood.Day, &mood.Emoji, &mood.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mood not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mood: %w", err)
	}
	return mood, nil
}

// SaveRating replaces the day's rating
func (r *DailyEntryRepository) SaveRating(ctx context.Context, rating *models.Rating) error {
	return r.replace(ctx, "ratings", rating.Key, rating.Day, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO ratings (user_key, day, score) VALUES ($1, $2, $3)`,
			rating.Key, rating.Day, rating.Score)
		if err != nil {
			return fmt.Errorf("failed to save rating: %w", err)
		}
		return nil
	})
}

// GetRating returns the day's rating or ErrNotFound
func (r *DailyEntryRepository) GetRating(ctx context.Context, key models.UserKey, day models.Day) (*models.Rating, error) {
	rating := &models.Rating{}
	err := r.db.QueryRowContext(ctx, `SELECT user_key, day, score FROM ratings WHERE user_key = $1 AND day = $2`, key, day).
		Scan(&rating.Key, &rating.Day, &rating.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rating not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, nil
}

// ListRatings returns ratings with from <= day <= to, oldest first
func (r *DailyEntryRepository) ListRatings(ctx context.Context, key models.UserKey, from, to models.Day) ([]*models.Rating, error) {
	query := `
		SELECT user_key, day, score
		FROM ratings
		WHERE user_key = $1 AND day BETWEEN $2 AND $3
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, key, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*models.Rating
	for rows.Next() {
		rating := &models.Rating{}
		if err := rows.Scan(&rating.Key, &rating.Day, &rating.Score); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return ratings, nil
}
