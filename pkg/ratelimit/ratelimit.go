package ratelimit

import (
	"context"
	"time"
)

// Counter is the slice of the cache store the limiter needs. The redis
// cache repository satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
}

// Limiter answers whether one more action is allowed for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// FixedWindowLimiter counts actions per key in fixed windows backed by
// the shared cache, so the state survives restarts and is visible to
// every process. Replaces the usual in-process map-of-counters.
type FixedWindowLimiter struct {
	counter Counter
	limit   int64
	window  time.Duration
}

func NewFixedWindowLimiter(counter Counter, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.counter.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if _, err := l.counter.Expire(ctx, key, l.window); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}
