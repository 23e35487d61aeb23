package telegram

import (
	"context"
	"fmt"

	"github.com/benvon/daily-journal/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	defaultFloodRate = "30-M"
	floodKeyPrefix   = "journal:flood"
)

// FloodGuard limits how many inbound updates one chat may send
type FloodGuard struct {
	limiter *limiter.Limiter
}

// NewFloodGuard creates a guard for rate (ulule format, e.g. "30-M"). A nil
// client keeps the counters in process memory.
func NewFloodGuard(client *redis.Client, rate string) (*FloodGuard, error) {
	if rate == "" {
		rate = defaultFloodRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid chat rate limit %q: %w", rate, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: floodKeyPrefix, CleanUpInterval: limiter.DefaultCleanUpInterval})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{Prefix: floodKeyPrefix, CleanUpInterval: limiter.DefaultCleanUpInterval})
	}
	return &FloodGuard{limiter: limiter.New(store, parsed)}, nil
}

// Allow counts one update for key and reports whether it is within the limit
func (g *FloodGuard) Allow(ctx context.Context, key models.UserKey) (bool, error) {
	lctx, err := g.limiter.Get(ctx, key.String())
	if err != nil {
		return true, fmt.Errorf("failed to check chat rate limit: %w", err)
	}
	return !lctx.Reached, nil
}
