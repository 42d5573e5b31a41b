// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed cache for rendered public pages and the
// sitemap. Only anonymous responses are cached; signed-in readers see their
// own like state and always hit the database.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages full-page caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves a cached page. The second result is false on a miss or a
// Valkey error.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores a rendered page with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, body []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, body, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// Invalidate removes the given pages.
func (pc *PageCache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = pageKeyPrefix + k
	}
	if err := pc.client.Del(ctx, full...).Err(); err != nil {
		slog.Warn("page cache invalidate error", "keys", keys, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "keys", keys)
}

// InvalidatePrefix removes every cached page whose key starts with prefix.
func (pc *PageCache) InvalidatePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+prefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "prefix", prefix, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("page cache prefix cleared", "prefix", prefix, "deleted", deleted)
	}
}

// InvalidatePost drops everything a post change can affect: the post page,
// the home listing, the sitemap, tag listings and profile pages.
func (pc *PageCache) InvalidatePost(ctx context.Context, slug string) {
	pc.Invalidate(ctx, PostKey(slug), HomeKey(), SitemapKey())
	pc.InvalidatePrefix(ctx, tagKeyPrefix)
	pc.InvalidatePrefix(ctx, profileKeyPrefix)
}

// InvalidateAll drops every cached page. Used when an author's name or
// username changes, which shows on most pages.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	pc.InvalidatePrefix(ctx, "")
}

const (
	tagKeyPrefix     = "tag:"
	profileKeyPrefix = "profile:"
)

// HomeKey returns the cache key for the home page.
func HomeKey() string { return "home" }

// SitemapKey returns the cache key for sitemap.xml.
func SitemapKey() string { return "sitemap" }

// PostKey returns the cache key for a post page.
func PostKey(slug string) string { return "post:" + slug }

// TagKey returns the cache key for a tag listing.
func TagKey(slug string) string { return tagKeyPrefix + slug }

// ProfileKey returns the cache key for a public profile page.
func ProfileKey(username string) string { return profileKeyPrefix + username }
