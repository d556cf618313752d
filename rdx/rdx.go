// Package rdx is a small Redis-backed read-through cache for JSON values.
package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recipehub/logging"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "recipehub:"

type Cache struct {
	Conn *redis.Client
	ttl  time.Duration
}

// New connects and pings. An empty addr returns a nil *Cache, which is valid
// and never caches.
func New(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return nil, nil
	}
	conn := redis.NewClient(&redis.Options{Addr: addr})
	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{Conn: conn, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.Conn.Close()
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	if err := c.Conn.Del(ctx, full...).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Strs("keys", keys).Msg("cache invalidate")
	}
}

// Remember returns the cached value under key, or calls load and caches its
// result. Cache failures are logged and fall through to load.
func Remember[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	full := keyPrefix + key

	val, err := c.Conn.Get(ctx, full).Bytes()
	if err == nil {
		var out T
		if err := json.Unmarshal(val, &out); err == nil {
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache read")
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if data, err := json.Marshal(out); err == nil {
		if err := c.Conn.Set(ctx, full, data, c.ttl).Err(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache write")
		}
	}
	return out, nil
}
