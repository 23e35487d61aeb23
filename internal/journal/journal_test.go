package journal

import (
	"context"
	"testing"
	"time"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/models"
)

func TestBuildSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := database.NewMemoryStore().Repositories()
	key := models.UserKey(21)
	at := time.Date(2024, time.May, 2, 18, 0, 0, 0, time.Local)
	day := models.DayOf(at)

	if _, err := repos.Users.Upsert(ctx, key, "Grace"); err != nil {
		t.Fatal(err)
	}
	if err := repos.Users.SetFreeTextStatus(ctx, key, "Berlin, writing"); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Tasks.Create(ctx, key, "ship", at); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Notes.Create(ctx, key, "note", at); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Habits.Create(ctx, key, "walk", at); err != nil {
		t.Fatal(err)
	}
	if err := repos.Entries.SaveMood(ctx, &models.Mood{Key: key, Emoji: "😐", Score: 5, Day: day}); err != nil {
		t.Fatal(err)
	}

	snap, err := BuildSnapshot(ctx, repos, key, "", day)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if snap.DisplayName != "Grace" {
		t.Errorf("DisplayName = %q, want profile name", snap.DisplayName)
	}
	if len(snap.Tasks) != 1 || len(snap.Notes) != 1 || len(snap.Habits) != 1 {
		t.Errorf("snapshot items = %d tasks, %d notes, %d habits", len(snap.Tasks), len(snap.Notes), len(snap.Habits))
	}
	if snap.Mood == nil || snap.Mood.Score != 5 {
		t.Errorf("Mood = %+v", snap.Mood)
	}
	if snap.Quote != nil || snap.Rating != nil {
		t.Errorf("Quote/Rating = %+v/%+v, want nil", snap.Quote, snap.Rating)
	}
	if snap.FreeTextStatus == nil || *snap.FreeTextStatus != "Berlin, writing" {
		t.Errorf("FreeTextStatus = %v", snap.FreeTextStatus)
	}
}

func TestBuildSnapshot_UnknownUser(t *testing.T) {
	t.Parallel()
	repos := database.NewMemoryStore().Repositories()
	snap, err := BuildSnapshot(context.Background(), repos, 404, "Nobody", "2024-05-02")
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if snap.DisplayName != "Nobody" || snap.FreeTextStatus != nil {
		t.Errorf("snapshot = %+v", snap)
	}
}
