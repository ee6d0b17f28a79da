package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RedisCache is a dispatch.TokenCache backed by Redis, for deployments that
// run more than one replica and want the 5-minute token window shared.
// Redis errors are logged and treated as a miss: caching is an optimization,
// not a transaction, and the profile store stays the source of truth.
type RedisCache struct {
	client CacheClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client CacheClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "RedisTokenCache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (string, bool) {
	token, err := c.client.Get(ctx, c.key(userID))
	if err != nil {
		// Absent key and broken connection look the same here; both fall
		// back to the profile store.
		return "", false
	}
	return token, true
}

func (c *RedisCache) Put(ctx context.Context, userID string, token string) {
	if err := c.client.Set(ctx, c.key(userID), token, c.ttl); err != nil {
		c.logger.Warn("Failed to populate token cache", "user_id", userID, "err", err)
	}
}

func (c *RedisCache) Forget(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, c.key(userID)); err != nil {
		c.logger.Warn("Failed to evict token cache entry", "user_id", userID, "err", err)
	}
}

func (c *RedisCache) key(userID string) string {
	return fmt.Sprintf("notify:token:%s", userID)
}
