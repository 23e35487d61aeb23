package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/models"
)

// HabitRepository handles habit database operations
type HabitRepository struct {
	db *DB
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *DB) *HabitRepository {
	return &HabitRepository{db: db}
}

// Create allocates the next per-user habit id and inserts the habit
func (r *HabitRepository) Create(ctx context.Context, key models.UserKey, description string, at time.Time) (*models.Habit, error) {
	habit := &models.Habit{Key: key, Description: description, Day: models.DayOf(at)}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		id, err := nextHabitID(ctx, tx, key)
		if err != nil {
			return err
		}
		habit.ID = id

		query := `
			INSERT INTO habits (user_key, id, description, completed, day)
			VALUES ($1, $2, $3, false, $4)
		`
		if _, err := tx.ExecContext(ctx, query, key, id, description, habit.Day); err != nil {
			return fmt.Errorf("failed to insert habit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}
	return habit, nil
}

// List returns all of the user's habits ordered by id
func (r *HabitRepository) List(ctx context.Context, key models.UserKey) ([]*models.Habit, error) {
	query := `
		SELECT id, user_key, description, completed, completed_at, day
		FROM habits
		WHERE user_key = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []*models.Habit
	for rows.Next() {
		habit := &models.Habit{}
		var completedAt sql.NullString
		if err := rows.Scan(&habit.ID, &habit.Key, &habit.Description, &habit.Completed, &completedAt, &habit.Day); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		if completedAt.Valid {
			habit.CompletedAt = &completedAt.String
		}
		habits = append(habits, habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}
	return habits, nil
}

// Count returns the number of habits the user currently has
func (r *HabitRepository) Count(ctx context.Context, key models.UserKey) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM habits WHERE user_key = $1`, key).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count habits: %w", err)
	}
	return n, nil
}

// Exists reports whether the habit id exists for the user
func (r *HabitRepository) Exists(ctx context.Context, key models.UserKey, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM habits WHERE user_key = $1 AND id = $2)`, key, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check habit: %w", err)
	}
	return exists, nil
}

// Complete marks the habit completed and bumps completed_habits for at's day on
// the pending to completed transition
func (r *HabitRepository) Complete(ctx context.Context, key models.UserKey, id int, at time.Time) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE habits SET completed = true, completed_at = $3
			WHERE user_key = $1 AND id = $2 AND completed = false
		`
		res, err := tx.ExecContext(ctx, query, key, id, models.ClockTime(at))
		if err != nil {
			return fmt.Errorf("failed to complete habit: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to complete habit: %w", err)
		}
		if n == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM habits WHERE user_key = $1 AND id = $2)`, key, id).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check habit: %w", err)
			}
			if !exists {
				return fmt.Errorf("habit %d: %w", id, ErrNotFound)
			}
			return nil
		}
		_, err = applyDelta(ctx, tx, key, models.DayOf(at), models.DeltaHabitCompleted)
		return err
	})
}

// ResetAll clears the completed flag on every habit of the user
func (r *HabitRepository) ResetAll(ctx context.Context, key models.UserKey) error {
	query := `UPDATE habits SET completed = false, completed_at = NULL WHERE user_key = $1`
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to reset habits: %w", err)
	}
	return nil
}

// Delete removes the habit
func (r *HabitRepository) Delete(ctx context.Context, key models.UserKey, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE user_key = $1 AND id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	return nil
}
