// Package journal assembles a user's day into a snapshot and defines the
// artifact generator contract the day journal is rendered through.
package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/models"
)

// Artifact is an opaque rendered journal
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Generator renders a day snapshot into an artifact
type Generator interface {
	Generate(ctx context.Context, snap *models.DaySnapshot) (*Artifact, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, snap *models.DaySnapshot) (*Artifact, error)

// Generate implements Generator
func (f GeneratorFunc) Generate(ctx context.Context, snap *models.DaySnapshot) (*Artifact, error) {
	return f(ctx, snap)
}

// BuildSnapshot collects everything recorded for key on day. Missing quote,
// mood, rating or status are left nil.
func BuildSnapshot(ctx context.Context, repos *database.Repositories, key models.UserKey, displayName string, day models.Day) (*models.DaySnapshot, error) {
	snap := &models.DaySnapshot{Key: key, DisplayName: displayName, Day: day}

	var err error
	if snap.Tasks, err = repos.Tasks.ListByDay(ctx, key, day); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	if snap.Notes, err = repos.Notes.ListByDay(ctx, key, day); err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	if snap.Habits, err = repos.Habits.List(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	if snap.Quote, err = optional(repos.Entries.GetQuote(ctx, key, day)); err != nil {
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	if snap.Mood, err = optional(repos.Entries.GetMood(ctx, key, day)); err != nil {
		return nil, fmt.Errorf("failed to load mood: %w", err)
	}
	if snap.Rating, err = optional(repos.Entries.GetRating(ctx, key, day)); err != nil {
		return nil, fmt.Errorf("failed to load rating: %w", err)
	}

	user, err := optional(repos.Users.Get(ctx, key))
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user != nil {
		snap.FreeTextStatus = user.FreeTextStatus
		if snap.DisplayName == "" {
			snap.DisplayName = user.DisplayName
		}
	}
	return snap, nil
}

// optional turns ErrNotFound into a nil value
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// Sample returns the demo snapshot shown to new users
func Sample(key models.UserKey, displayName string, day models.Day) *models.DaySnapshot {
	done := "09:30"
	status := "Home, Reading, Learning Go"
	return &models.DaySnapshot{
		Key:         key,
		DisplayName: displayName,
		Day:         day,
		Tasks: []*models.Task{
			{ID: 1, Description: "Plan the week", Completed: true, CompletedAt: &done, Day: day},
			{ID: 2, Description: "Call the dentist", Day: day},
		},
		Habits: []*models.Habit{
			{ID: 1, Description: "Morning run", Completed: true, CompletedAt: &done, Day: day},
			{ID: 2, Description: "Read 20 pages", Day: day},
		},
		Notes: []*models.Note{
			{ID: 1, Content: "Try the new coffee place on the corner", CreatedAt: "12:15", Day: day},
		},
		Quote:          &models.Quote{Key: key, Text: "Well begun is half done.", Day: day},
		Mood:           &models.Mood{Key: key, Emoji: "😊", Score: 7, Day: day},
		Rating:         &models.Rating{Key: key, Score: 8, Day: day},
		FreeTextStatus: &status,
	}
}
