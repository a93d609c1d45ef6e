package project

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyCache caches API-key lookups so hot tenants do not hit the
// metadata store on every request. Entries expire after a short TTL, so
// a rotated or deleted key stops working within one TTL window even if
// invalidation is missed.
type KeyCache interface {
	Get(ctx context.Context, apiKey string) (*Project, bool)
	Set(ctx context.Context, apiKey string, p *Project)
	Invalidate(ctx context.Context, apiKey string)
}

// RedisKeyCache is a Redis-backed KeyCache.
type RedisKeyCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisKeyCache creates a KeyCache on the given Redis client.
func NewRedisKeyCache(rdb redis.UniversalClient, ttl time.Duration) *RedisKeyCache {
	return &RedisKeyCache{rdb: rdb, ttl: ttl}
}

func cacheKey(apiKey string) string {
	return "auth:apikey:" + apiKey
}

func (c *RedisKeyCache) Get(ctx context.Context, apiKey string) (*Project, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(apiKey)).Bytes()
	if err != nil {
		return nil, false
	}
	p := &Project{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, false
	}
	return p, true
}

func (c *RedisKeyCache) Set(ctx context.Context, apiKey string, p *Project) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	// Cache failures are invisible to callers; the store remains authoritative.
	_ = c.rdb.Set(ctx, cacheKey(apiKey), raw, c.ttl).Err()
}

func (c *RedisKeyCache) Invalidate(ctx context.Context, apiKey string) {
	_ = c.rdb.Del(ctx, cacheKey(apiKey)).Err()
}

// NopKeyCache is used when no Redis is configured.
type NopKeyCache struct{}

func (NopKeyCache) Get(context.Context, string) (*Project, bool) { return nil, false }
func (NopKeyCache) Set(context.Context, string, *Project)       {}
func (NopKeyCache) Invalidate(context.Context, string)          {}

var (
	_ KeyCache = (*RedisKeyCache)(nil)
	_ KeyCache = NopKeyCache{}
)
