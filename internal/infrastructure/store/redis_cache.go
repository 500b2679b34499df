package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/product-catalog/internal/catalog"
)

// ProductCache is a cache-aside layer over Redis. All failures degrade
// to a cache miss so Redis being down never breaks reads.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func cacheKey(id string) string {
	return "product:" + id
}

func (c *ProductCache) Get(ctx context.Context, id string) (*catalog.Product, bool) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[ProductCache] Get failed for %s: %v", id, err)
		}
		return nil, false
	}

	var p catalog.Product
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("[ProductCache] Corrupt entry for %s: %v", id, err)
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *catalog.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("[ProductCache] Marshal failed for %s: %v", p.ID, err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(p.ID), data, c.ttl).Err(); err != nil {
		log.Printf("[ProductCache] Set failed for %s: %v", p.ID, err)
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		log.Printf("[ProductCache] Invalidate failed for %s: %v", id, err)
	}
}
