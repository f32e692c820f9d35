// Package cache wraps the Redis client backing the revocation
// blacklist and the fixed-window rate limiter behind a circuit
// breaker, so a failing Redis degrades each caller's fallback policy
// instead of hanging every request on dial timeouts.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Client is the shared Redis connection used by RevocationCache and
// RateLimiter.
type Client struct {
	rdb *redis.Client
}

// Config configures the Redis connection.
type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewClient opens a Redis client. The connection is lazy; call Ping to
// verify connectivity before serving traffic.
func NewClient(cfg Config) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.DialTimeout,
		}),
	}
}

// Ping verifies connectivity to Redis.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
