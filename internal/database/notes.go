package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/models"
)

// NoteRepository handles note database operations
type NoteRepository struct {
	db *DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create allocates the next per-day note id and inserts the note
func (r *NoteRepository) Create(ctx context.Context, key models.UserKey, content string, at time.Time) (*models.Note, error) {
	day := models.DayOf(at)
	note := &models.Note{Key: key, Content: content, CreatedAt: models.ClockTime(at), Day: day}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		bucket, err := applyDelta(ctx, tx, key, day, models.DeltaNoteCreated)
		if err != nil {
			return err
		}
		note.ID = bucket.NoteCounter

		query := `
			INSERT INTO notes (user_key, day, id, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, query, key, day, note.ID, content, note.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

// ListByDay returns the user's notes for day ordered by id
func (r *NoteRepository) ListByDay(ctx context.Context, key models.UserKey, day models.Day) ([]*models.Note, error) {
	query := `
		SELECT id, user_key, content, created_at, day
		FROM notes
		WHERE user_key = $1 AND day = $2
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, key, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note := &models.Note{}
		if err := rows.Scan(&note.ID, &note.Key, &note.Content, &note.CreatedAt, &note.Day); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

// Exists reports whether the note id exists for the user on day
func (r *NoteRepository) Exists(ctx context.Context, key models.UserKey, day models.Day, id int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notes WHERE user_key = $1 AND day = $2 AND id = $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key, day, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check note: %w", err)
	}
	return exists, nil
}

// Delete removes the note
func (r *NoteRepository) Delete(ctx context.Context, key models.UserKey, day models.Day, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE user_key = $1 AND day = $2 AND id = $3`, key, day, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	return nil
}
