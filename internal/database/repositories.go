package database

import (
	"context"
	"time"

	"github.com/benvon/daily-journal/internal/models"
)

// CounterRepositoryInterface defines the counter store. Each mutation kind is a
// single atomic ApplyDelta call, so report arithmetic can rely on exactly one
// increment per event.
type CounterRepositoryInterface interface {
	ApplyDelta(ctx context.Context, key models.UserKey, day models.Day, delta models.CounterDelta) (*models.CounterBucket, error)
	NextHabitID(ctx context.Context, key models.UserKey) (int, error)
	ListRange(ctx context.Context, key models.UserKey, from, to models.Day) ([]*models.CounterBucket, error)
}

// TaskRepositoryInterface defines the day-scoped task store
type TaskRepositoryInterface interface {
	Create(ctx context.Context, key models.UserKey, description string, at time.Time) (*models.Task, error)
	ListByDay(ctx context.Context, key models.UserKey, day models.Day) ([]*models.Task, error)
	Exists(ctx context.Context, key models.UserKey, day models.Day, id int) (bool, error)
	Complete(ctx context.Context, key models.UserKey, id int, at time.Time) error
	Delete(ctx context.Context, key models.UserKey, day models.Day, id int) error
}

// NoteRepositoryInterface defines the day-scoped note store
type NoteRepositoryInterface interface {
	Create(ctx context.Context, key models.UserKey, content string, at time.Time) (*models.Note, error)
	ListByDay(ctx context.Context, key models.UserKey, day models.Day) ([]*models.Note, error)
	Exists(ctx context.Context, key models.UserKey, day models.Day, id int) (bool, error)
	Delete(ctx context.Context, key models.UserKey, day models.Day, id int) error
}

// HabitRepositoryInterface defines the habit store; habits are not day-scoped
type HabitRepositoryInterface interface {
	Create(ctx context.Context, key models.UserKey, description string, at time.Time) (*models.Habit, error)
	List(ctx context.Context, key models.UserKey) ([]*models.Habit, error)
	Count(ctx context.Context, key models.UserKey) (int, error)
	Exists(ctx context.Context, key models.UserKey, id int) (bool, error)
	Complete(ctx context.Context, key models.UserKey, id int, at time.Time) error
	ResetAll(ctx context.Context, key models.UserKey) error
	Delete(ctx context.Context, key models.UserKey, id int) error
}

// DailyEntryRepositoryInterface defines the singleton-per-day entries. A save
// replaces any entry already stored for the same user and day.
type DailyEntryRepositoryInterface interface {
	SaveQuote(ctx context.Context, quote *models.Quote) error
	GetQuote(ctx context.Context, key models.UserKey, day models.Day) (*models.Quote, error)
	SaveMood(ctx context.Context, mood *models.Mood) error
	GetMood(ctx context.Context, key models.UserKey, day models.Day) (*models.Mood, error)
	SaveRating(ctx context.Context, rating *models.Rating) error
	GetRating(ctx context.Context, key models.UserKey, day models.Day) (*models.Rating, error)
	ListRatings(ctx context.Context, key models.UserKey, from, to models.Day) ([]*models.Rating, error)
}

// UserRepositoryInterface defines the user profile store
type UserRepositoryInterface interface {
	Upsert(ctx context.Context, key models.UserKey, displayName string) (*models.UserProfile, error)
	Get(ctx context.Context, key models.UserKey) (*models.UserProfile, error)
	List(ctx context.Context) ([]*models.UserProfile, error)
	GetPendingState(ctx context.Context, key models.UserKey) (string, error)
	SetPendingState(ctx context.Context, key models.UserKey, state string) error
	SetFreeTextStatus(ctx context.Context, key models.UserKey, status string) error
}

// GraphRepositoryInterface defines the commit graph link store
type GraphRepositoryInterface interface {
	Save(ctx context.Context, link *models.GraphLink) error
	Get(ctx context.Context, key models.UserKey) (*models.GraphLink, error)
}

// JournalRepositoryInterface defines the generated artifact store
type JournalRepositoryInterface interface {
	Save(ctx context.Context, journal *models.Journal) error
	Get(ctx context.Context, key models.UserKey, day models.Day) (*models.Journal, error)
}

// Repositories bundles every store the application uses. Both the Postgres
// repositories and MemoryStore can populate it.
type Repositories struct {
	Users    UserRepositoryInterface
	Counters CounterRepositoryInterface
	Tasks    TaskRepositoryInterface
	Notes    NoteRepositoryInterface
	Habits   HabitRepositoryInterface
	Entries  DailyEntryRepositoryInterface
	Graphs   GraphRepositoryInterface
	Journals JournalRepositoryInterface
}

// NewPostgresRepositories builds Repositories over a Postgres pool
func NewPostgresRepositories(db *DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Counters: NewCounterRepository(db),
		Tasks:    NewTaskRepository(db),
		Notes:    NewNoteRepository(db),
		Habits:   NewHabitRepository(db),
		Entries:  NewDailyEntryRepository(db),
		Graphs:   NewGraphRepository(db),
		Journals: NewJournalRepository(db),
	}
}

// Ensure concrete types implement the interfaces
var (
	_ CounterRepositoryInterface    = (*CounterRepository)(nil)
	_ TaskRepositoryInterface       = (*TaskRepository)(nil)
	_ NoteRepositoryInterface       = (*NoteRepository)(nil)
	_ HabitRepositoryInterface      = (*HabitRepository)(nil)
	_ DailyEntryRepositoryInterface = (*DailyEntryRepository)(nil)
	_ UserRepositoryInterface       = (*UserRepository)(nil)
	_ GraphRepositoryInterface      = (*GraphRepository)(nil)
	_ JournalRepositoryInterface    = (*JournalRepository)(nil)
)
