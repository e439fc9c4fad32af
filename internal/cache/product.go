// Package cache provides the Redis read-through cache for product lookups.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playnest/marketplace/internal/domain"
)

// ProductCache caches product-by-ID lookups in Redis. All methods are safe on
// a nil receiver, which is how the cache is disabled: callers never need to
// branch on whether caching is configured. Cache failures are logged and
// swallowed; Postgres stays the source of truth.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProductCache creates a product cache backed by the given Redis client.
func NewProductCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProductCache {
	return &ProductCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func productKey(id string) string {
	return "product:" + id
}

// Get returns the cached product and whether it was present.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "product cache read failed",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.WarnContext(ctx, "product cache entry corrupt, dropping",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		c.Invalidate(ctx, id)
		return nil, false
	}

	return &p, true
}

// Set stores the product under its ID.
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		c.logger.WarnContext(ctx, "product cache marshal failed",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "product cache write failed",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the cached entry for the product. Every product mutation
// calls it, including review writes, since those change the stored average.
func (c *ProductCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}
