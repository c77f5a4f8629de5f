package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestThrottle(t *testing.T, max int, window time.Duration) (*RequestThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRequestThrottle(client, "prt", RequestThrottleConfig{Window: window, MaxRequests: max}), mr
}

func TestAllowWithinBudget(t *testing.T) {
	throttle, _ := newTestThrottle(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := throttle.Allow(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	if err := throttle.Allow(ctx, "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestBudgetIsPerIP(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	if err := throttle.Allow(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("first ip: %v", err)
	}
	if err := throttle.Allow(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("second ip should have its own budget: %v", err)
	}
}

func TestWindowExpiry(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	if err := throttle.Allow(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := throttle.Allow(ctx, "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	if err := throttle.Allow(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("expected fresh window, got %v", err)
	}
}

func TestEmptyIPNeverThrottled(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := throttle.Allow(ctx, ""); err != nil {
			t.Fatalf("empty ip must pass, got %v", err)
		}
	}
}
