package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/logger"
	"go.uber.org/zap"
)

const purgeTimeout = 2 * time.Minute

// DeadLetterCollector drops dead-lettered broadcast jobs once they are older
// than the retention period. A broadcast that old is never worth replaying.
type DeadLetterCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewDeadLetterCollector creates a collector. A nil purger makes every pass
// a no-op.
func NewDeadLetterCollector(purger DLQPurger, interval, retention time.Duration, log *zap.Logger) *DeadLetterCollector {
	return &DeadLetterCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger.OrNop(log),
	}
}

// Run purges once immediately and then every interval until ctx is cancelled
func (c *DeadLetterCollector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		if _, err := c.Collect(ctx); err != nil {
			c.logger.Warn("dead_letter_purge_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Collect runs one purge pass and returns how many jobs were dropped
func (c *DeadLetterCollector) Collect(ctx context.Context) (int, error) {
	if c.purger == nil || ctx.Err() != nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := c.purger.PurgeOlderThan(ctx, c.retention)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead letters: %w", err)
	}
	if n > 0 {
		c.logger.Info("dead_letters_purged",
			zap.Int("count", n),
			zap.Duration("retention", c.retention),
		)
	}
	return n, nil
}
