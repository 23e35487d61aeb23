package middleware

import (
	"fmt"
	"net/http"

	"github.com/benvon/daily-journal/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultAdminRate is the admin API limit per client IP
const DefaultAdminRate = "5-S"

const rateLimitPrefix = "journal:admin_ratelimit"

// RateLimit limits requests per client IP. Counters live in Redis when a
// client is given and in process memory otherwise.
func RateLimit(redisClient *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultAdminRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rate, err)
	}

	opts := limiter.StoreOptions{Prefix: rateLimitPrefix, CleanUpInterval: limiter.DefaultCleanUpInterval}
	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(opts)
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, parsed), stdlibmw.WithKeyGetter(request.ClientIP))
	return mw.Handler, nil
}
