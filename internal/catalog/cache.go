package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const listCacheKey = "catalog:public_items"

// Cache keeps the public item listing in Redis so storefront traffic does not
// hit PostgreSQL on every request. All methods are nil-safe no-ops when no
// client is configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetItems returns the cached listing, or ok=false on miss.
func (c *Cache) GetItems(ctx context.Context) ([]Item, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var items []Item
	if err := json.Unmarshal(payload, &items); err != nil {
		// Corrupt payload: treat as miss and let the caller repopulate.
		return nil, false, nil
	}
	return items, true, nil
}

// SetItems stores the listing with the configured TTL.
func (c *Cache) SetItems(ctx context.Context, items []Item) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listCacheKey, payload, c.ttl).Err()
}

// Invalidate drops the cached listing after item writes.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, listCacheKey).Err()
}
