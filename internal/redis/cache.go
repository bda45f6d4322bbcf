package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const deleteScanCount = 100

// Cache implements cache.Cache on Redis. Expiry is delegated to Redis TTLs,
// so a read after expiry sees goredis.Nil and reports the key as absent.
type Cache struct {
	rdb goredis.Cmdable
}

func NewCache(rdb goredis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache GET failed: %w", err)
	}
	return data, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache SET failed: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key with the given prefix using SCAN so a bulk
// invalidation never blocks Redis the way KEYS would.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", deleteScanCount).Result()
		if err != nil {
			return fmt.Errorf("cache SCAN failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache DEL failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
