// Package report builds the weekly mood, tasks, habits and satisfaction reports
// from counter buckets and ratings.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"go.uber.org/zap"
)

// Weekly holds the rendered reports of one user; an empty field means the
// category had no data
type Weekly struct {
	Key          models.UserKey `json:"user_key"`
	Window       Window         `json:"window"`
	Mood         string         `json:"mood,omitempty"`
	Tasks        string         `json:"tasks,omitempty"`
	Habits       string         `json:"habits,omitempty"`
	Satisfaction string         `json:"satisfaction,omitempty"`
}

// Empty reports whether no category produced a report
func (w *Weekly) Empty() bool {
	return w.Mood == "" && w.Tasks == "" && w.Habits == "" && w.Satisfaction == ""
}

// Aggregator computes weekly reports
type Aggregator struct {
	counters database.CounterRepositoryInterface
	entries  database.DailyEntryRepositoryInterface
	habits   database.HabitRepositoryInterface
	logger   *zap.Logger
}

// NewAggregator creates a report aggregator
func NewAggregator(repos *database.Repositories, log *zap.Logger) *Aggregator {
	return &Aggregator{
		counters: repos.Counters,
		entries:  repos.Entries,
		habits:   repos.Habits,
		logger:   logger.OrNop(log),
	}
}

// Weekly builds the reports for the week ending on end. A failing category is
// logged and left empty; the other categories are still computed.
func (a *Aggregator) Weekly(ctx context.Context, key models.UserKey, end models.Day) *Weekly {
	window := WeekOf(end)
	w := &Weekly{Key: key, Window: window}

	buckets, err := a.counters.ListRange(ctx, key, window.Start, window.End)
	if err != nil {
		a.categoryFailed(key, "counters", err)
	} else {
		w.Mood = MoodReport(buckets)
		w.Tasks = TasksReport(buckets)

		count, err := a.habits.Count(ctx, key)
		if err != nil {
			a.categoryFailed(key, "habits", err)
		} else {
			w.Habits = HabitsReport(buckets, count)
		}
	}

	ratings, err := a.entries.ListRatings(ctx, key, window.Start, window.End)
	if err != nil {
		a.categoryFailed(key, "satisfaction", err)
	} else {
		w.Satisfaction = SatisfactionReport(ratings)
	}

	return w
}

// WeeklyAt is Weekly for the local day containing now. Rows are keyed by
// local wall time, so now is converted before taking its day.
func (a *Aggregator) WeeklyAt(ctx context.Context, key models.UserKey, now time.Time) *Weekly {
	return a.Weekly(ctx, key, models.DayOf(now.In(time.Local)))
}

func (a *Aggregator) categoryFailed(key models.UserKey, category string, err error) {
	a.logger.Error("weekly_report_category_failed",
		zap.Int64("user_key", int64(key)),
		zap.String("category", category),
		zap.String("error", logger.SanitizeError(err)),
	)
}

// Messages returns the chat messages that deliver w, in order
func (w *Weekly) Messages(weekday time.Weekday) []string {
	msgs := []string{fmt.Sprintf("Hi, it's %s! 🌞\nHere is your Weekly Report:", weekday)}
	for _, r := range []string{w.Mood, w.Tasks, w.Habits} {
		if r != "" {
			msgs = append(msgs, r)
		}
	}
	if w.Satisfaction != "" {
		return append(msgs, "Now based on Your Own Daily Ratings we have🤩...", w.Satisfaction)
	}
	return append(msgs,
		"You do not have enough data 😞",
		"Please try using the bot more often\n"+
			"To get weekly reports on your weekly:\n"+
			"● Mood levels 😊\n"+
			"● Tasks 📋\n"+
			"● Habits 🌱\n\n"+
			"Try /start to get started! 🤠",
	)
}
