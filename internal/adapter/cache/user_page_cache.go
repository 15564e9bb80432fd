package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
)

// UserPageCache stores first pages of the unfiltered user listing,
// keyed by page size.
type UserPageCache interface {
	// Get returns the cached page.
	// Returns nil if nothing is cached for this limit.
	Get(ctx context.Context, limit int64) (*paging.Page[user.User], error)

	// Set stores a page under the requested limit with the configured TTL.
	// The limit the server echoes back may differ (it clamps), so it is
	// not used as the key.
	Set(ctx context.Context, limit int64, page *paging.Page[user.User]) error

	// Invalidate drops every cached page.
	Invalidate(ctx context.Context) error
}

const keyPrefix = "console:users:first-page:"

// RedisUserPageCache implements UserPageCache using Redis as the backing store.
type RedisUserPageCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserPageCache creates a new Redis-backed page cache.
func NewRedisUserPageCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisUserPageCache {
	return &RedisUserPageCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (c *RedisUserPageCache) cacheKey(limit int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, limit)
}

// Get retrieves a page from Redis.
func (c *RedisUserPageCache) Get(ctx context.Context, limit int64) (*paging.Page[user.User], error) {
	data, err := c.client.Get(ctx, c.cacheKey(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.Int64("limit", limit))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var page paging.Page[user.User]
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}

	c.log.Debug("cache hit", zap.Int64("limit", limit), zap.Int("items", len(page.Items)))
	return &page, nil
}

// Set stores a page in Redis with TTL.
func (c *RedisUserPageCache) Set(ctx context.Context, limit int64, page *paging.Page[user.User]) error {
	if page == nil {
		return errors.New("cannot cache nil page")
	}

	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.cacheKey(limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	c.log.Debug("users page cached", zap.Int64("limit", limit), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate removes every cached page.
func (c *RedisUserPageCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	c.log.Debug("users pages invalidated", zap.Int("count", len(keys)))
	return nil
}
