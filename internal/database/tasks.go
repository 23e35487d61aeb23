package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create allocates the next per-day task id and inserts the task in one transaction
func (r *TaskRepository) Create(ctx context.Context, key models.UserKey, description string, at time.Time) (*models.Task, error) {
	day := models.DayOf(at)
	task := &models.Task{Key: key, Description: description, Day: day}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		bucket, err := applyDelta(ctx, tx, key, day, models.DeltaTaskCreated)
		if err != nil {
			return err
		}
		task.ID = bucket.TaskCounter

		query := `
			INSERT INTO tasks (user_key, day, id, description, completed)
			VALUES ($1, $2, $3, $4, false)
		`
		if _, err := tx.ExecContext(ctx, query, key, day, task.ID, description); err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// ListByDay returns the user's tasks for day ordered by id
func (r *TaskRepository) ListByDay(ctx context.Context, key models.UserKey, day models.Day) ([]*models.Task, error) {
	query := `
		SELECT id, user_key, description, completed, completed_at, day
		FROM tasks
		WHERE user_key = $1 AND day = $2
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, key, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var completedAt sql.NullString
		if err := rows.Scan(&task.ID, &task.Key, &task.Description, &task.Completed, &completedAt, &task.Day); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if completedAt.Valid {
			task.CompletedAt = &completedAt.String
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// Exists reports whether the task id exists for the user on day
func (r *TaskRepository) Exists(ctx context.Context, key models.UserKey, day models.Day, id int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tasks WHERE user_key = $1 AND day = $2 AND id = $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, key, day, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check task: %w", err)
	}
	return exists, nil
}

// Complete marks the task on at's day completed. The completed_tasks counter is
// bumped only on the pending to completed transition, so repeats are no-ops.
func (r *TaskRepository) Complete(ctx context.Context, key models.UserKey, id int, at time.Time) error {
	day := models.DayOf(at)
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE tasks SET completed = true, completed_at = $4
			WHERE user_key = $1 AND day = $2 AND id = $3 AND completed = false
		`
		res, err := tx.ExecContext(ctx, query, key, day, id, models.ClockTime(at))
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		if n == 0 {
			var exists bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM tasks WHERE user_key = $1 AND day = $2 AND id = $3)`,
				key, day, id).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check task: %w", err)
			}
			if !exists {
				return fmt.Errorf("task %d: %w", id, ErrNotFound)
			}
			return nil
		}
		_, err = applyDelta(ctx, tx, key, day, models.DeltaTaskCompleted)
		return err
	})
}

// Delete removes the task; the id is never handed out again
func (r *TaskRepository) Delete(ctx context.Context, key models.UserKey, day models.Day, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_key = $1 AND day = $2 AND id = $3`, key, day, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}
