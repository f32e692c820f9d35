package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// RevocationStatus is the outcome of a blacklist lookup.
type RevocationStatus int

const (
	// NotRevoked means the cache was reachable and the jti is absent
	// from the blacklist.
	NotRevoked RevocationStatus = iota
	// Revoked means the jti is present in the blacklist.
	Revoked
	// Unknown means the cache could not be consulted (I/O failure or
	// open circuit breaker). It is NOT a fail-open signal: the caller
	// must fall through to the durable store, which remains
	// authoritative, rather than treat Unknown as NotRevoked.
	Unknown
)

// RevocationCache is the Redis-backed revoked-jti blacklist.
type RevocationCache struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker
}

// NewRevocationCache builds a RevocationCache over an existing client.
func NewRevocationCache(client *Client) *RevocationCache {
	return &RevocationCache{client: client, breaker: newBreaker("revocation-cache")}
}

func revocationKey(jti string) string {
	return fmt.Sprintf("revoked:jti:%s", jti)
}

// IsRevoked checks the blacklist for jti. A cache I/O failure or an
// open breaker returns Unknown, never NotRevoked: the revocation
// pipeline step is the one place this codebase deliberately does not
// fail open, since a cache outage must not silently let a revoked
// capability through.
func (c *RevocationCache) IsRevoked(ctx context.Context, jti string) (RevocationStatus, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.rdb.Exists(ctx, revocationKey(jti)).Result()
	})
	if err != nil {
		return Unknown, err
	}
	if result.(int64) > 0 {
		return Revoked, nil
	}
	return NotRevoked, nil
}

// Revoke adds jti to the blacklist until expiresAt, or for at least one
// second if expiresAt has already passed.
func (c *RevocationCache) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.rdb.Set(ctx, revocationKey(jti), "1", ttl).Err()
	})
	return err
}

// ErrCacheUnavailable is returned by helpers that need to distinguish
// "definitely not revoked" from "couldn't check" without exposing
// go-redis error types to callers.
var ErrCacheUnavailable = errors.New("cache: revocation lookup unavailable")
