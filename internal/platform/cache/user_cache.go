package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/osadchyi/contacts-api/internal/domain"
	"github.com/osadchyi/contacts-api/pkg/logger"
)

// UserCache is a read accelerator for user projections. It is never
// authoritative: mutation-gating decisions always go to the store. A nil
// *UserCache (redis unreachable at startup) degrades every call to a miss.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	if rdb == nil {
		return nil
	}
	return &UserCache{rdb: rdb, ttl: ttl}
}

func userKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// Get returns the cached projection, or nil on miss or any cache error.
func (c *UserCache) Get(ctx context.Context, id int64) *domain.UserInfo {
	if c == nil {
		return nil
	}

	raw, err := c.rdb.Get(ctx, userKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.DebugContext(ctx, "user cache read failed", "error", err)
		}
		return nil
	}

	var info domain.UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil
	}
	return &info
}

func (c *UserCache) Set(ctx context.Context, info *domain.UserInfo) {
	if c == nil || info == nil {
		return
	}

	payload, err := json.Marshal(info)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, userKey(info.ID), payload, c.ttl).Err(); err != nil {
		logger.DebugContext(ctx, "user cache write failed", "error", err)
	}
}

// Drop invalidates a cached projection after a mutation the cache entry
// does not reflect.
func (c *UserCache) Drop(ctx context.Context, id int64) {
	if c == nil {
		return
	}

	if err := c.rdb.Del(ctx, userKey(id)).Err(); err != nil {
		logger.DebugContext(ctx, "user cache delete failed", "error", err)
	}
}
