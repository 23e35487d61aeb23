package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/benvon/daily-journal/internal/models"
)

// CounterRepository handles counter bucket operations
type CounterRepository struct {
	db *DB
}

// NewCounterRepository creates a new counter repository
func NewCounterRepository(db *DB) *CounterRepository {
	return &CounterRepository{db: db}
}

const bucketColumns = `user_key, day, completed_tasks, task_counter, note_counter, completed_habits, mood_score`

// ApplyDelta atomically increments the counter named by delta and returns the updated bucket
func (r *CounterRepository) ApplyDelta(ctx context.Context, key models.UserKey, day models.Day, delta models.CounterDelta) (*models.CounterBucket, error) {
	return applyDelta(ctx, r.db, key, day, delta)
}

// applyDelta runs the upsert-increment on q so callers can join it to a transaction
func applyDelta(ctx context.Context, q queryer, key models.UserKey, day models.Day, delta models.CounterDelta) (*models.CounterBucket, error) {
	column := delta.Column()
	if column == "" {
		return nil, fmt.Errorf("unknown counter delta %q", delta)
	}

	// column comes from a closed switch, never from input
	query := fmt.Sprintf(`
		INSERT INTO counter_buckets (user_key, day, %[1]s)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_key, day) DO UPDATE SET %[1]s = counter_buckets.%[1]s + 1
		RETURNING %[2]s
	`, column, bucketColumns)

	bucket, err := scanBucket(q.QueryRowContext(ctx, query, key, day))
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s delta: %w", delta, err)
	}
	return bucket, nil
}

// setMoodScore stores the day's mood score, creating the bucket if needed
func setMoodScore(ctx context.Context, q queryer, key models.UserKey, day models.Day, score int) error {
	query := `
		INSERT INTO counter_buckets (user_key, day, mood_score)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_key, day) DO UPDATE SET mood_score = EXCLUDED.mood_score
	`
	if _, err := q.ExecContext(ctx, query, key, day, score); err != nil {
		return fmt.Errorf("failed to set mood score: %w", err)
	}
	return nil
}

// NextHabitID increments and returns the user's habit sequence counter
func (r *CounterRepository) NextHabitID(ctx context.Context, key models.UserKey) (int, error) {
	return nextHabitID(ctx, r.db, key)
}

func nextHabitID(ctx context.Context, q queryer, key models.UserKey) (int, error) {
	query := `
		INSERT INTO habit_counters (user_key, last_id)
		VALUES ($1, 1)
		ON CONFLICT (user_key) DO UPDATE SET last_id = habit_counters.last_id + 1
		RETURNING last_id
	`
	var id int
	if err := q.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate habit id: %w", err)
	}
	return id, nil
}

// ListRange returns the buckets with from <= day <= to, oldest first
func (r *CounterRepository) ListRange(ctx context.Context, key models.UserKey, from, to models.Day) ([]*models.CounterBucket, error) {
	query := `SELECT ` + bucketColumns + `
		FROM counter_buckets
		WHERE user_key = $1 AND day BETWEEN $2 AND $3
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, key, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query counter buckets: %w", err)
	}
	defer rows.Close()

	var buckets []*models.CounterBucket
	for rows.Next() {
		bucket, err := scanBucket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan counter bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counter buckets: %w", err)
	}
	return buckets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBucket(row rowScanner) (*models.CounterBucket, error) {
	bucket := &models.CounterBucket{}
	var mood sql.NullInt64
	err := row.Scan(
		&bucket.Key,
		&bucket.Day,
		&bucket.CompletedTasks,
		&bucket.TaskCounter,
		&bucket.NoteCounter,
		&bucket.CompletedHabits,
		&mood,
	)
	if err != nil {
		return nil, err
	}
	if mood.Valid {
		score := int(mood.Int64)
		bucket.MoodScore = &score
	}
	return bucket, nil
}
