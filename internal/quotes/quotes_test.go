package quotes

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/models"
)

func TestLoad_Default(t *testing.T) {
	t.Parallel()
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if c.Len() == 0 {
		t.Error("default catalogue is empty")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantLen int
		wantErr bool
	}{
		{name: "two quotes", data: "quotes:\n  - text: a\n  - text: b\n    author: c\n", wantLen: 2},
		{name: "blank dropped", data: "quotes:\n  - text: \"  \"\n  - text: b\n", wantLen: 1},
		{name: "empty", data: "quotes: []\n", wantErr: true},
		{name: "malformed", data: "quotes: [", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := Parse([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", c.Len(), tt.wantLen)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "quotes.yaml")
	if err := os.WriteFile(path, []byte("quotes:\n  - text: only one\n    author: me\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(c, database.NewMemoryStore().Repositories().Entries, rand.New(rand.NewPCG(1, 2)))
	if got := svc.Pick().String(); got != "only one\n(me)" {
		t.Errorf("Pick() = %q", got)
	}
}

func TestService_TodayReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := Parse([]byte("quotes:\n  - text: a\n  - text: b\n  - text: c\n"))
	entries := database.NewMemoryStore().Repositories().Entries
	svc := NewService(c, entries, rand.New(rand.NewPCG(7, 7)))
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.Local)

	var last string
	for i := 0; i < 3; i++ {
		text, err := svc.Today(ctx, 1, now)
		if err != nil {
			t.Fatal(err)
		}
		last = text
	}
	got, err := entries.GetQuote(ctx, 1, models.DayOf(now))
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != last {
		t.Errorf("stored quote = %q, want latest pick %q", got.Text, last)
	}
}
