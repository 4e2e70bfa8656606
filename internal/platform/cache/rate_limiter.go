package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/osadchyi/contacts-api/pkg/logger"
)

// RateLimiter is a fixed-window counter over redis. It fails open: any
// redis error, or a nil limiter in degraded mode, allows the request.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	if rdb == nil {
		return nil
	}
	return &RateLimiter{rdb: rdb}
}

func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil {
		return true
	}

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.DebugContext(ctx, "rate limit check failed", "error", err)
		return true
	}
	if count == 1 {
		l.rdb.Expire(ctx, key, window)
	}

	return count <= int64(limit)
}
