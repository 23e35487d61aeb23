package workers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/report"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrency bounds how many users a broadcast serves at once
	DefaultConcurrency = 8

	quoteHeader  = "Today's quote🫰🏿:"
	reminderText = "🌟 Reminder:\n" +
		"⏳ Only 30 minutes left to wrap up your day's activities!\n\n" +
		"After use /end_day to receive your Journal of the day! ✨"
)

// Sender delivers plain text to a user
type Sender interface {
	SendText(ctx context.Context, key models.UserKey, text string) error
}

// QuoteSource picks and records the quote of the day
type QuoteSource interface {
	Today(ctx context.Context, key models.UserKey, now time.Time) (string, error)
}

// Summary counts the outcome of one broadcast
type Summary struct {
	Users  int `json:"users"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Broadcaster sends the scheduled messages to every user
type Broadcaster struct {
	users       database.UserRepositoryInterface
	sender      Sender
	quotes      QuoteSource
	reports     *report.Aggregator
	concurrency int
	logger      *zap.Logger
}

// NewBroadcaster creates a broadcaster; concurrency <= 0 selects DefaultConcurrency
func NewBroadcaster(users database.UserRepositoryInterface, sender Sender, quotes QuoteSource, reports *report.Aggregator, concurrency int, log *zap.Logger) *Broadcaster {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Broadcaster{
		users:       users,
		sender:      sender,
		quotes:      quotes,
		reports:     reports,
		concurrency: concurrency,
		logger:      logger.OrNop(log),
	}
}

// SendQuotes sends the quote of the day, recording it as each user's quote
func (b *Broadcaster) SendQuotes(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error) {
	return b.each(ctx, "quotes", keys, func(ctx context.Context, key models.UserKey) error {
		quote, err := b.quotes.Today(ctx, key, now)
		if err != nil {
			return fmt.Errorf("failed to pick quote: %w", err)
		}
		if err := b.sender.SendText(ctx, key, quoteHeader); err != nil {
			return err
		}
		return b.sender.SendText(ctx, key, quote)
	})
}

// SendReminders reminds users to close their day
func (b *Broadcaster) SendReminders(ctx context.Context, _ time.Time, keys ...models.UserKey) (Summary, error) {
	return b.each(ctx, "reminders", keys, func(ctx context.Context, key models.UserKey) error {
		return b.sender.SendText(ctx, key, reminderText)
	})
}

// SendWeeklyReports sends the report for the week ending on now's day
func (b *Broadcaster) SendWeeklyReports(ctx context.Context, now time.Time, keys ...models.UserKey) (Summary, error) {
	return b.each(ctx, "weekly_reports", keys, func(ctx context.Context, key models.UserKey) error {
		weekly := b.reports.WeeklyAt(ctx, key, now)
		for _, msg := range weekly.Messages(now.Weekday()) {
			if err := b.sender.SendText(ctx, key, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// each runs fn for every target user with bounded concurrency. A failing user
// is logged and counted; only failing to list users is an error.
func (b *Broadcaster) each(ctx context.Context, kind string, keys []models.UserKey, fn func(context.Context, models.UserKey) error) (Summary, error) {
	if len(keys) == 0 {
		users, err := b.users.List(ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to list users: %w", err)
		}
		for _, u := range users {
			keys = append(keys, u.Key)
		}
	}

	var sent, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := fn(ctx, key); err != nil {
				failed.Add(1)
				b.logger.Warn("broadcast_delivery_failed",
					zap.String("kind", kind),
					zap.Int64("user_key", int64(key)),
					zap.String("error", logger.SanitizeError(err)),
				)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Users: len(keys), Sent: int(sent.Load()), Failed: int(failed.Load())}
	b.logger.Info("broadcast_completed",
		zap.String("kind", kind),
		zap.Int("users", summary.Users),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
