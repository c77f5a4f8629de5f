// Package limiters holds the Redis fixed-window request throttle that
// fronts the engine's public operations.
package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited        = errors.New("request rate limited")
	ErrLimiterUnavailable = errors.New("request limiter unavailable")
)

// RequestThrottleConfig bounds how many requests a single IP may make
// per fixed window.
type RequestThrottleConfig struct {
	Window      time.Duration
	MaxRequests int
}

// RequestThrottle is a per-IP INCR+EXPIRE fixed-window counter.
type RequestThrottle struct {
	redis  redis.UniversalClient
	prefix string
	config RequestThrottleConfig
}

func NewRequestThrottle(redisClient redis.UniversalClient, prefix string, cfg RequestThrottleConfig) *RequestThrottle {
	if prefix == "" {
		prefix = "prt"
	}
	return &RequestThrottle{redis: redisClient, prefix: prefix, config: cfg}
}

func (t *RequestThrottle) key(ip string) string {
	return t.prefix + ":" + ip
}

// Allow consumes one slot for ip, returning ErrRateLimited once the
// window budget is exhausted. An empty ip is never throttled.
func (t *RequestThrottle) Allow(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}

	count, err := t.redis.Incr(ctx, t.key(ip)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err := t.redis.Expire(ctx, t.key(ip), t.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	if count > int64(t.config.MaxRequests) {
		return ErrRateLimited
	}

	return nil
}
