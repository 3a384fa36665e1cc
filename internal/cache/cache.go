package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encoded values of T under a key prefix. A nil client
// turns every operation into a miss or a no-op.
type Cache[T any] struct {
	rc     *redis.Client
	prefix string
}

func NewCache[T any](rc *redis.Client, prefix string) *Cache[T] {
	return &Cache[T]{rc: rc, prefix: prefix}
}

// NewClient parses a redis:// URL; an empty URL yields a nil client.
func NewClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *Cache[T]) Enabled() bool {
	return c != nil && c.rc != nil
}

func (c *Cache[T]) Key(field string) string {
	return c.prefix + ":" + field
}

// Get returns (nil, nil) on a miss.
func (c *Cache[T]) Get(ctx context.Context, field string) (*T, error) {
	if !c.Enabled() {
		return nil, nil
	}

	result, err := c.rc.Get(ctx, c.Key(field)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var row T
	if err := json.Unmarshal([]byte(result), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &row, nil
}

func (c *Cache[T]) Set(ctx context.Context, field string, data *T, expire time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := c.rc.Set(ctx, c.Key(field), bytes, expire).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *Cache[T]) Delete(ctx context.Context, field string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.rc.Del(ctx, c.Key(field)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// Generation is a counter folded into cache keys; bumping it orphans every
// entry written under the previous value.
type Generation struct {
	rc  *redis.Client
	key string
}

func NewGeneration(rc *redis.Client, key string) *Generation {
	return &Generation{rc: rc, key: key}
}

func (g *Generation) Current(ctx context.Context) (int64, error) {
	if g == nil || g.rc == nil {
		return 0, nil
	}
	v, err := g.rc.Get(ctx, g.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read generation: %w", err)
	}
	return strconv.ParseInt(v, 10, 64)
}

func (g *Generation) Bump(ctx context.Context) error {
	if g == nil || g.rc == nil {
		return nil
	}
	if err := g.rc.Incr(ctx, g.key).Err(); err != nil {
		return fmt.Errorf("failed to bump generation: %w", err)
	}
	return nil
}
