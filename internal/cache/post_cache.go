package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/domain"
)

const (
	publishedKey  = "posts:published"
	slugKeyPrefix = "posts:slug:"
)

// PostCache is a cache-aside layer for public post reads. A nil *PostCache, or one
// built without a client, behaves as a permanent miss.
type PostCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewPostCache returns a cache bound to client. It returns nil when client is nil.
func NewPostCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *PostCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PostCache{client: client, ttl: ttl, logger: logger}
}

// Enabled reports whether reads can hit Redis.
func (c *PostCache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetPublished returns the cached published listing.
func (c *PostCache) GetPublished(ctx context.Context) ([]domain.Post, bool) {
	var posts []domain.Post
	if !c.get(ctx, publishedKey, &posts) {
		return nil, false
	}
	return posts, true
}

// SetPublished stores the published listing.
func (c *PostCache) SetPublished(ctx context.Context, posts []domain.Post) {
	c.set(ctx, publishedKey, posts)
}

// GetBySlug returns a cached published post.
func (c *PostCache) GetBySlug(ctx context.Context, slug string) (*domain.Post, bool) {
	var post domain.Post
	if !c.get(ctx, SlugKey(slug), &post) {
		return nil, false
	}
	return &post, true
}

// SetBySlug caches a published post under its slug.
func (c *PostCache) SetBySlug(ctx context.Context, post domain.Post) {
	if !post.Published {
		return
	}
	c.set(ctx, SlugKey(post.Slug), post)
}

// Invalidate drops the published listing and the given slug entries.
func (c *PostCache) Invalidate(ctx context.Context, slugs ...string) error {
	if !c.Enabled() {
		return nil
	}
	keys := []string{publishedKey}
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, SlugKey(slug))
		}
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// SlugKey returns the cache key for a single post.
func SlugKey(slug string) string {
	return slugKeyPrefix + slug
}

func (c *PostCache) get(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *PostCache) set(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
