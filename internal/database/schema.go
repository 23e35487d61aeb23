package database

import (
	"context"
	"fmt"
)

// schema is applied at startup; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_key         BIGINT PRIMARY KEY,
		display_name     TEXT NOT NULL DEFAULT '',
		pending_state    TEXT NOT NULL DEFAULT '',
		graph_url        TEXT,
		free_text_status TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS counter_buckets (
		user_key         BIGINT NOT NULL,
		day              DATE NOT NULL,
		completed_tasks  INTEGER NOT NULL DEFAULT 0,
		task_counter     INTEGER NOT NULL DEFAULT 0,
		note_counter     INTEGER NOT NULL DEFAULT 0,
		completed_habits INTEGER NOT NULL DEFAULT 0,
		mood_score       INTEGER,
		PRIMARY KEY (user_key, day)
	)`,
	`CREATE TABLE IF NOT EXISTS habit_counters (
		user_key BIGINT PRIMARY KEY,
		last_id  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		user_key     BIGINT NOT NULL,
		day          DATE NOT NULL,
		id           INTEGER NOT NULL,
		description  TEXT NOT NULL,
		completed    BOOLEAN NOT NULL DEFAULT false,
		completed_at TEXT,
		PRIMARY KEY (user_key, day, id)
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		user_key   BIGINT NOT NULL,
		day        DATE NOT NULL,
		id         INTEGER NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_key, day, id)
	)`,
	`CREATE TABLE IF NOT EXISTS habits (
		user_key     BIGINT NOT NULL,
		id           INTEGER NOT NULL,
		description  TEXT NOT NULL,
		completed    BOOLEAN NOT NULL DEFAULT false,
		completed_at TEXT,
		day          DATE NOT NULL,
		PRIMARY KEY (user_key, id)
	)`,
	`CREATE TABLE IF NOT EXISTS quotes (
		user_key BIGINT NOT NULL,
		day      DATE NOT NULL,
		text     TEXT NOT NULL,
		PRIMARY KEY (user_key, day)
	)`,
	`CREATE TABLE IF NOT EXISTS moods (
		user_key BIGINT NOT NULL,
		day      DATE NOT NULL,
		emoji    TEXT NOT NULL,
		score    INTEGER NOT NULL,
		PRIMARY KEY (user_key, day)
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		user_key BIGINT NOT NULL,
		day      DATE NOT NULL,
		score    INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
		PRIMARY KEY (user_key, day)
	)`,
	`CREATE TABLE IF NOT EXISTS graph_links (
		user_key     BIGINT NOT NULL,
		display_name TEXT NOT NULL,
		graph_url    TEXT NOT NULL,
		day          DATE NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_links_user_key ON graph_links (user_key)`,
	`CREATE TABLE IF NOT EXISTS journals (
		user_key     BIGINT NOT NULL,
		display_name TEXT NOT NULL,
		day          DATE NOT NULL,
		filename     TEXT NOT NULL,
		data         BYTEA NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_key, display_name, day)
	)`,
}

// Migrate creates any missing tables and indexes
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
