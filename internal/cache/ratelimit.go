package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// RateLimiter enforces a fixed-window request count per
// workspace/agent/action_type, keyed by the current minute bucket.
type RateLimiter struct {
	client   *Client
	breaker  *gobreaker.CircuitBreaker
	window   time.Duration
	keyTTL   time.Duration
	failOpen bool
}

// NewRateLimiter builds a RateLimiter. failOpen controls what happens
// when Redis is unreachable: unlike the revocation cache, this
// defaults to false (fail-closed) per configuration, reflecting that a
// rate limit and a revocation blacklist protect against different
// failure directions.
func NewRateLimiter(client *Client, window, keyTTL time.Duration, failOpen bool) *RateLimiter {
	return &RateLimiter{
		client:   client,
		breaker:  newBreaker("rate-limiter"),
		window:   window,
		keyTTL:   keyTTL,
		failOpen: failOpen,
	}
}

func rateLimitKey(workspaceID, agentID, actionType string, bucket int64) string {
	return fmt.Sprintf("rate:%s:%s:%s:%d", workspaceID, agentID, actionType, bucket)
}

func minuteBucket(now time.Time, window time.Duration) int64 {
	return now.Unix() / int64(window.Seconds())
}

// Increment bumps the request count for the current fixed window and
// returns the post-increment value. If this is the first increment in
// the window, it sets the key's TTL to the configured key TTL (70s by
// default, i.e. window+10s for a 60s window) so the counter
// outlives the window long enough to cover clock skew between
// Increment calls, then expires on its own.
func (r *RateLimiter) Increment(ctx context.Context, workspaceID, agentID, actionType string, now time.Time) (int64, error) {
	bucket := minuteBucket(now, r.window)
	key := rateLimitKey(workspaceID, agentID, actionType, bucket)

	result, err := r.breaker.Execute(func() (interface{}, error) {
		count, err := r.client.rdb.Incr(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if count == 1 {
			if err := r.client.rdb.Expire(ctx, key, r.keyTTL).Err(); err != nil {
				return nil, err
			}
		}
		return count, nil
	})

	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// FailOpen reports the configured failure-direction policy: whether an
// Increment error (cache outage, open breaker) should be treated as
// "allow" rather than "deny" by the caller.
func (r *RateLimiter) FailOpen() bool {
	return r.failOpen
}

// Allow is a convenience wrapper for callers that already know the
// limit to enforce: it increments the window counter and reports
// whether the post-increment count is within limit, following the
// configured fail-open policy on a cache failure.
func (r *RateLimiter) Allow(ctx context.Context, workspaceID, agentID, actionType string, now time.Time, limit int64) (bool, error) {
	count, err := r.Increment(ctx, workspaceID, agentID, actionType, now)
	if err != nil {
		return r.failOpen, err
	}
	return count <= limit, nil
}
