// Package app builds the shared dependencies of the bot, worker and admin
// CLI processes from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/benvon/daily-journal/internal/artifact"
	"github.com/benvon/daily-journal/internal/cache"
	"github.com/benvon/daily-journal/internal/commit"
	"github.com/benvon/daily-journal/internal/config"
	"github.com/benvon/daily-journal/internal/conversation"
	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/handlers"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/queue"
	"github.com/benvon/daily-journal/internal/quotes"
	"github.com/benvon/daily-journal/internal/report"
	"github.com/benvon/daily-journal/internal/workers"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectAttempts    = 10
	connectMaxInterval = 30 * time.Second
)

// QueueMode selects how New obtains the job queue
type QueueMode int

const (
	// QueueNone skips the job queue
	QueueNone QueueMode = iota
	// QueueRabbitMQ requires RABBITMQ_URL
	QueueRabbitMQ
	// QueueRabbitMQOrMemory falls back to an in-process queue without RABBITMQ_URL
	QueueRabbitMQOrMemory
)

// Deps is the application context shared by all components of a process
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *database.DB // nil with the memory store
	Repos    *database.Repositories
	Redis    *redis.Client // nil without REDIS_URL
	Queue    queue.JobQueue
	Graphs   *commit.Client
	Renderer *artifact.Renderer
	Quotes   *quotes.Service
	Reports  *report.Aggregator

	closers []func() error
}

// New connects the configured store, cache and queue and builds the services
// on top of them. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, mode QueueMode) (deps *Deps, err error) {
	d := &Deps{Config: cfg, Logger: logger.OrNop(log)}
	defer func() {
		if err != nil {
			_ = d.Close()
		}
	}()

	if err := d.openStore(ctx); err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			d.Logger.Warn("failed_to_connect_to_redis_continuing_without_cache", zap.Error(err))
		} else {
			d.Redis = client
			d.closers = append(d.closers, client.Close)
			d.Logger.Info("connected_to_redis")
		}
	}

	if err := d.openQueue(ctx, mode); err != nil {
		return nil, err
	}

	renderer, err := artifact.NewRenderer(cfg.JournalFont)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal font: %w", err)
	}
	d.Renderer = renderer

	catalogue, err := quotes.Load(cfg.QuotesFile)
	if err != nil {
		return nil, err
	}
	d.Quotes = quotes.NewService(catalogue, d.Repos.Entries, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	d.Reports = report.NewAggregator(d.Repos, d.Logger)

	d.Graphs = commit.NewClient(commit.Config{
		BaseURL:     cfg.GraphBaseURL,
		Token:       cfg.GraphUserToken,
		MaxRetries:  cfg.CommitMaxRetries,
		InsertDelay: cfg.CommitInsertDelay,
		RetryDelay:  cfg.CommitRetryDelay,
		HTTPClient:  &http.Client{Timeout: cfg.CommitHTTPTimeout},
		Logger:      d.Logger,
	})

	return d, nil
}

func (d *Deps) openStore(ctx context.Context) error {
	if d.Config.StoreDriver == config.StoreDriverMemory {
		d.Repos = database.NewMemoryStore().Repositories()
		d.Logger.Warn("using_memory_store_data_is_not_persisted")
		return nil
	}

	var db *database.DB
	err := retry(ctx, d.Logger, "postgres", func() error {
		var err error
		db, err = database.New(d.Config.DatabaseURL)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = db
	d.closers = append(d.closers, db.Close)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	d.Repos = database.NewPostgresRepositories(db)
	d.Logger.Info("connected_to_database")
	return nil
}

func (d *Deps) openQueue(ctx context.Context, mode QueueMode) error {
	if mode == QueueNone {
		return nil
	}
	if d.Config.RabbitMQURL == "" {
		if mode == QueueRabbitMQ {
			return d.Config.RequireRabbitMQ()
		}
		q := queue.NewMemoryQueue(64)
		d.Queue = q
		d.closers = append(d.closers, q.Close)
		d.Logger.Warn("rabbitmq_not_configured_using_in_process_queue")
		return nil
	}

	var q *queue.RabbitMQQueue
	err := retry(ctx, d.Logger, "rabbitmq", func() error {
		var err error
		q, err = queue.NewRabbitMQQueue(d.Config.RabbitMQURL, d.Logger)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	d.Queue = q
	d.closers = append(d.closers, q.Close)
	d.Logger.Info("connected_to_rabbitmq")
	return nil
}

// retry runs connect with capped exponential backoff; dependencies started
// alongside the bot may come up a little later
func retry(ctx context.Context, log *zap.Logger, what string, connect func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = connectMaxInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(connect,
		backoff.WithContext(backoff.WithMaxRetries(policy, connectAttempts-1), ctx),
		func(err error, delay time.Duration) {
			attempt++
			log.Warn("failed_to_connect_retrying",
				zap.String("dependency", what),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", connectAttempts),
				zap.Duration("retry_delay", delay),
				zap.Error(err),
			)
		},
	)
}

// StateStore returns the conversation state store, cached in Redis when
// Redis is available
func (d *Deps) StateStore() conversation.StateStore {
	users := d.Repos.Users
	if d.Redis != nil {
		users = cache.NewStateCache(users, d.Redis, 0, d.Logger)
	}
	return conversation.NewProfileStateStore(users)
}

// Engine builds the conversation engine on top of messenger
func (d *Deps) Engine(messenger conversation.Messenger) *conversation.Engine {
	return conversation.NewEngine(conversation.Config{
		Repos:     d.Repos,
		States:    d.StateStore(),
		Messenger: messenger,
		Generator: d.Renderer,
		Graphs:    d.Graphs,
		Quotes:    d.Quotes,
		Logger:    d.Logger.Named("conversation"),
	})
}

// Broadcaster builds the broadcaster on top of sender
func (d *Deps) Broadcaster(sender workers.Sender) *workers.Broadcaster {
	return workers.NewBroadcaster(d.Repos.Users, sender, d.Quotes, d.Reports, d.Config.BroadcastConcurrency, d.Logger.Named("broadcast"))
}

// Slots converts the configured broadcast times
func (d *Deps) Slots() (workers.Slots, error) {
	quote, err := config.ParseClock(d.Config.QuoteTime)
	if err != nil {
		return workers.Slots{}, err
	}
	reminder, err := config.ParseClock(d.Config.ReminderTime)
	if err != nil {
		return workers.Slots{}, err
	}
	weekly, err := config.ParseClock(d.Config.ReportTime)
	if err != nil {
		return workers.Slots{}, err
	}
	return workers.Slots{Quote: quote, Reminder: reminder, ReportWeekday: d.Config.ReportWeekday, Report: weekly}, nil
}

// HealthChecks returns a probe per connected dependency
func (d *Deps) HealthChecks() map[string]handlers.Check {
	checks := map[string]handlers.Check{}
	if d.DB != nil {
		checks["database"] = d.DB.PingContext
	}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }
	}
	if d.Queue != nil {
		checks["queue"] = d.Queue.HealthCheck
	}
	return checks
}

// Close releases connections in reverse order of opening
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
