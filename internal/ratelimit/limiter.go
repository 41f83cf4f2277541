package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the counter and starts its window on the first hit.
// Returns the new count and the remaining window in milliseconds.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('PTTL', KEYS[1])}
`)

// Result describes the state of a window after a request was counted
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key in fixed windows stored in Redis
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func rateLimitKey(purpose, key string) string {
	return fmt.Sprintf("rate_limit:%s:%s", purpose, key)
}

// Allow records one request for key and reports whether it fits in the window
func (l *Limiter) Allow(ctx context.Context, purpose, key string, limit int, window time.Duration) (Result, error) {
	vals, err := fixedWindow.Run(ctx, l.client, []string{rateLimitKey(purpose, key)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("failed to record request: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit reply: %v", vals)
	}

	return evaluate(int(vals[0]), time.Duration(vals[1])*time.Millisecond, limit, window), nil
}

func evaluate(count int, ttl time.Duration, limit int, window time.Duration) Result {
	if ttl < 0 {
		ttl = window
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}
