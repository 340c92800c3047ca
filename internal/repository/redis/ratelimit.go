package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiter implements a fixed-window per-tenant rate limit. Burst is
// slack on top of the steady-state limit to absorb short spikes.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit+burst requests per window
func NewRateLimiter(client *redis.Client, limit, burst int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: int64(limit + burst), window: window}
}

// Allow increments the tenant's counter for the current window and
// reports whether the request is within the limit
func (l *RateLimiter) Allow(ctx context.Context, tenantID string) (bool, error) {
	key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, tenantID, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incr.Val() <= l.limit, nil
}
