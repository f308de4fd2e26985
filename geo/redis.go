package geo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces geocode entries in a shared Redis.
const keyPrefix = "wandergrid:geo:"

// RedisCache is a Cache backed by a shared Redis, letting multiple
// instances reuse each other's geocode lookups.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects using a redis:// URL.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

// NewRedisCacheFromClient wraps an existing client, mostly for tests.
func NewRedisCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, query string) (Point, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+query).Bytes()
	if errors.Is(err, redis.Nil) {
		return Point{}, false, nil
	}
	if err != nil {
		return Point{}, false, err
	}
	var p Point
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt entry is a miss; it gets overwritten on the next Put.
		return Point{}, false, nil
	}
	return p, true, nil
}

func (c *RedisCache) Put(ctx context.Context, query string, p Point) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+query, raw, c.ttl).Err()
}

func (c *RedisCache) Close() error { return c.rdb.Close() }
