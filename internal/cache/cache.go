package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
	"github.com/fhuszti/uploads-ms-go/internal/port"
)

// KeyRegistry remembers issued storage keys in Redis until they expire.
type KeyRegistry struct {
	client *redis.Client
}

// compile-time check: *KeyRegistry must satisfy port.KeyRegistry
var _ port.KeyRegistry = (*KeyRegistry)(nil)

func NewKeyRegistry(addr, password string) *KeyRegistry {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &KeyRegistry{client: rdb}
}

func (c *KeyRegistry) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *KeyRegistry) Register(ctx context.Context, ownerID string, keys []string, ttl time.Duration) error {
	logger.Debugf(ctx, "registering %d issued keys for %s...", len(keys), ttl)

	pipe := c.client.TxPipeline()
	for _, k := range keys {
		pipe.Set(ctx, getCacheKey(k), ownerID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *KeyRegistry) Verify(ctx context.Context, ownerID string, keys []string) (bool, error) {
	if len(keys) == 0 {
		return true, nil
	}
	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = getCacheKey(k)
	}

	vals, err := c.client.MGet(ctx, cacheKeys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("redis mget failed: %w", err)
	}
	for i, v := range vals {
		owner, ok := v.(string)
		if !ok || owner != ownerID {
			logger.Warnf(ctx, "⚠️ key %q was not issued to the caller", keys[i])
			return false, nil
		}
	}
	return true, nil
}

func (c *KeyRegistry) Forget(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = getCacheKey(k)
	}
	if err := c.client.Del(ctx, cacheKeys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func getCacheKey(storageKey string) string {
	return "issued:" + storageKey
}
