package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

// DefaultRelatedTTL is how long an automatic bundle is reused.
const DefaultRelatedTTL = time.Hour

const DefaultRelatedComputeTimeout = 10 * time.Second

// RelatedCache stores desktop-sized automatic bundles. Errors are treated as
// misses by callers.
type RelatedCache interface {
	Get(ctx context.Context, key string) (content.Bundle, bool)
	Set(ctx context.Context, key string, b content.Bundle, ttl time.Duration)
	// Invalidate drops every cached bundle.
	Invalidate(ctx context.Context) error
}

type memoryEntry struct {
	bundle  content.Bundle
	expires time.Time
}

type memoryRelatedCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryRelatedCache(now func() time.Time) RelatedCache {
	if now == nil {
		now = time.Now
	}
	return &memoryRelatedCache{entries: map[string]memoryEntry{}, now: now}
}

func (c *memoryRelatedCache) Get(_ context.Context, key string) (content.Bundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return content.Bundle{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return content.Bundle{}, false
	}
	return e.bundle, true
}

func (c *memoryRelatedCache) Set(_ context.Context, key string, b content.Bundle, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{bundle: b, expires: c.now().Add(ttl)}
}

func (c *memoryRelatedCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]memoryEntry{}
	return nil
}

// redisRelatedCache namespaces keys by a generation counter; bumping the
// counter orphans every older entry, which then ages out by TTL.
type redisRelatedCache struct {
	rdb    goredis.UniversalClient
	prefix string
	log    *logger.Logger
}

func NewRedisRelatedCache(log *logger.Logger, rdb goredis.UniversalClient, prefix string) RelatedCache {
	if prefix == "" {
		prefix = "related"
	}
	return &redisRelatedCache{rdb: rdb, prefix: prefix, log: log.With("service", "RedisRelatedCache")}
}

func (c *redisRelatedCache) genKey() string { return c.prefix + ":gen" }

func (c *redisRelatedCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Result()
	if errors.Is(err, goredis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return c.prefix + ":" + gen + ":" + key, nil
}

func (c *redisRelatedCache) Get(ctx context.Context, key string) (content.Bundle, bool) {
	k, err := c.key(ctx, key)
	if err != nil {
		c.log.Debug("related cache unavailable", "error", err)
		return content.Bundle{}, false
	}
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Debug("related cache get failed", "error", err)
		}
		return content.Bundle{}, false
	}
	var b content.Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return content.Bundle{}, false
	}
	return b, true
}

func (c *redisRelatedCache) Set(ctx context.Context, key string, b content.Bundle, ttl time.Duration) {
	k, err := c.key(ctx, key)
	if err != nil {
		return
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, k, raw, ttl).Err(); err != nil {
		c.log.Debug("related cache set failed", "error", err)
	}
}

func (c *redisRelatedCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.genKey()).Err()
}
