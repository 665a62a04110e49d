// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go caches encoded JSON responses in Valkey. Entries expire after
// a TTL, but writes invalidate the affected keys explicitly so readers never
// wait for expiry to see a change.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces every response cache key.
	keyPrefix = "blog:"

	// DefaultTTL is how long a cached response lives without invalidation.
	DefaultTTL = 5 * time.Minute
)

// Key fragments for the cached endpoints.
const (
	PostPrefix     = "post:"
	CategoryPrefix = "category:"
	CategoriesAll  = "categories:all"
)

// PostKey returns the cache key for a post shown by slug.
func PostKey(slug string) string { return PostPrefix + slug }

// CategoryKey returns the cache key for a category shown by slug.
func CategoryKey(slug string) string { return CategoryPrefix + slug }

// ResponseCache stores encoded responses in Valkey. Errors are logged and
// treated as misses; the cache never fails a request.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a response cache backed by the given client.
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get returns the cached body for key.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("response cache hit", "key", key)
	return val, true
}

// Set stores body under key with the configured TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, body []byte) {
	if err := c.client.Set(ctx, keyPrefix+key, body, c.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// Invalidate removes the given keys.
func (c *ResponseCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		slog.Warn("response cache invalidate error", "keys", keys, "error", err)
		return
	}
	slog.Debug("response cache invalidated", "keys", keys)
}

// InvalidatePrefix removes every key starting with prefix by scanning.
// Used when a change can affect many cached responses, e.g. a category
// rename shows up in every post of that category.
func (c *ResponseCache) InvalidatePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+prefix+"*", 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "prefix", prefix, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("response cache prefix cleared", "prefix", prefix, "deleted", deleted)
	}
}
