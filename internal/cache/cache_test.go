package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)

	client := NewClient(Config{Addr: mr.Addr(), DialTimeout: time.Second})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRevocationCache_NotRevokedByDefault(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewRevocationCache(client)

	status, err := cache.IsRevoked(context.Background(), "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked() error = %v", err)
	}
	if status != NotRevoked {
		t.Errorf("IsRevoked() = %v, want NotRevoked", status)
	}
}

func TestRevocationCache_RevokedAfterRevoke(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewRevocationCache(client)
	ctx := context.Background()

	if err := cache.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	status, err := cache.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked() error = %v", err)
	}
	if status != Revoked {
		t.Errorf("IsRevoked() = %v, want Revoked", status)
	}
}

func TestRevocationCache_UnknownOnCacheFailure(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRevocationCache(client)
	mr.Close()

	status, err := cache.IsRevoked(context.Background(), "jti-1")
	if err == nil {
		t.Fatal("expected error when cache is unreachable")
	}
	if status != Unknown {
		t.Errorf("IsRevoked() = %v, want Unknown on cache failure", status)
	}
}

func TestRateLimiter_AllowsWithinWindow(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 60*time.Second, 70*time.Second, false)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(ctx, "ws-1", "agent-1", "purchase", now, 5)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !ok {
			t.Errorf("Allow() call %d = false, want true within limit", i+1)
		}
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 60*time.Second, 70*time.Second, false)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if _, err := limiter.Allow(ctx, "ws-1", "agent-1", "purchase", now, 3); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
	}

	ok, err := limiter.Allow(ctx, "ws-1", "agent-1", "purchase", now, 3)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if ok {
		t.Error("Allow() = true, want false once over limit")
	}
}

func TestRateLimiter_FailsClosedByDefaultOnCacheFailure(t *testing.T) {
	client, mr := newTestClient(t)
	limiter := NewRateLimiter(client, 60*time.Second, 70*time.Second, false)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "ws-1", "agent-1", "purchase", time.Now(), 5)
	if err == nil {
		t.Fatal("expected error when cache is unreachable")
	}
	if ok {
		t.Error("Allow() = true, want false (fail-closed) when cache is unreachable")
	}
}

func TestRateLimiter_FailsOpenWhenConfigured(t *testing.T) {
	client, mr := newTestClient(t)
	limiter := NewRateLimiter(client, 60*time.Second, 70*time.Second, true)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "ws-1", "agent-1", "purchase", time.Now(), 5)
	if err == nil {
		t.Fatal("expected error when cache is unreachable")
	}
	if !ok {
		t.Error("Allow() = false, want true (fail-open) when configured to fail open")
	}
}
