// Package cache fronts hot profile reads with Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultStateTTL bounds how long an untouched conversation state stays cached
const DefaultStateTTL = 24 * time.Hour

// Connect parses redisURL and verifies the server answers
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// StateCache is a write-through cache of the pending conversation state in
// front of a user repository. Redis failures degrade to the repository.
type StateCache struct {
	database.UserRepositoryInterface
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

var _ database.UserRepositoryInterface = (*StateCache)(nil)

// NewStateCache wraps users; ttl <= 0 selects DefaultStateTTL
func NewStateCache(users database.UserRepositoryInterface, client *redis.Client, ttl time.Duration, log *zap.Logger) *StateCache {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateCache{
		UserRepositoryInterface: users,
		client:                  client,
		ttl:                     ttl,
		log:                     logger.OrNop(log),
	}
}

func stateKey(key models.UserKey) string {
	return "journal:state:" + key.String()
}

// GetPendingState reads Redis first and fills it from the repository on a miss
func (c *StateCache) GetPendingState(ctx context.Context, key models.UserKey) (string, error) {
	state, err := c.client.Get(ctx, stateKey(key)).Result()
	switch {
	case err == nil:
		return state, nil
	case !errors.Is(err, redis.Nil):
		c.log.Warn("state_cache_read_failed",
			zap.Int64("user_key", int64(key)),
			zap.String("error", logger.SanitizeError(err)),
		)
	}

	state, err = c.UserRepositoryInterface.GetPendingState(ctx, key)
	if err != nil {
		return "", err
	}
	c.store(ctx, key, state)
	return state, nil
}

// SetPendingState writes the repository, then the cache
func (c *StateCache) SetPendingState(ctx context.Context, key models.UserKey, state string) error {
	if err := c.UserRepositoryInterface.SetPendingState(ctx, key, state); err != nil {
		return err
	}
	c.store(ctx, key, state)
	return nil
}

func (c *StateCache) store(ctx context.Context, key models.UserKey, state string) {
	if err := c.client.Set(ctx, stateKey(key), state, c.ttl).Err(); err != nil {
		c.log.Warn("state_cache_write_failed",
			zap.Int64("user_key", int64(key)),
			zap.String("error", logger.SanitizeError(err)),
		)
		// a stale entry would outlive the write; drop it
		c.client.Del(ctx, stateKey(key))
	}
}
