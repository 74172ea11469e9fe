package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var (
	_ Cache[int] = (*RedisCache[int])(nil)
	_ Versioner  = (*RedisCache[int])(nil)
)

// versionKey holds the counter behind Version and Bump, under the cache prefix.
const versionKey = "version"

// RedisCache is a JSON-backed Redis cache shared between API instances.
// Pass a zero ttl for keys that should not expire.
type RedisCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects and pings a Redis server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

func NewRedisCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns (zero, false) on any miss or decode error.
func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis cache read failed", "component", "cache", "key", key, "error", err)
		}
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		slog.WarnContext(ctx, "Redis cache entry undecodable", "component", "cache", "key", key, "error", err)
		return v, false
	}
	return v, true
}

// Set errors are logged; a failed cache write is not fatal.
func (c *RedisCache[T]) Set(ctx context.Context, key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.WarnContext(ctx, "Redis cache marshal failed", "component", "cache", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache write failed", "component", "cache", "key", key, "error", err)
	}
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Version reads the shared counter. A missing counter is version 0.
func (c *RedisCache[T]) Version(ctx context.Context) (uint64, error) {
	n, err := c.client.Get(ctx, c.prefix+versionKey).Uint64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis read version: %w", err)
	}
	return n, nil
}

// Bump increments the shared counter with INCR, so concurrent instances each
// get a distinct value.
func (c *RedisCache[T]) Bump(ctx context.Context) (uint64, error) {
	n, err := c.client.Incr(ctx, c.prefix+versionKey).Uint64()
	if err != nil {
		return 0, fmt.Errorf("redis bump version: %w", err)
	}
	return n, nil
}
