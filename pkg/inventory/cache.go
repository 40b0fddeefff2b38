package inventory

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/marktegna/netwalker/pkg/util"
)

// Cache wraps a Store with an optional Redis read-through layer in front
// of GetPrimaryIP, keyed by hostname. Per spec §4.7 this cache is strictly
// advisory: any Redis error, including an unreachable server, falls
// through to the underlying Store unconditionally. Nothing about
// correctness depends on Redis being present, so a nil or broken client
// degrades silently rather than failing the crawl.
type Cache struct {
	store *Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCache returns a Cache in front of store. If addr is empty, the
// returned Cache always falls through to store — this is the default,
// cache-disabled mode. A non-empty addr that turns out to be unreachable
// is logged once here and then behaves the same way for the rest of the
// crawl; GetPrimaryIP never blocks retrying a dead Redis.
func NewCache(store *Store, addr string, ttl time.Duration) *Cache {
	c := &Cache{store: store, ttl: ttl}
	if addr == "" {
		return c
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		util.Warnf("inventory: redis cache at %s unreachable, disabling cache: %v", addr, err)
		rdb.Close()
		return c
	}
	c.rdb = rdb
	return c
}

// GetPrimaryIP returns the cached primary IP for hostname if present,
// otherwise queries the Store and best-effort populates the cache for
// next time.
func (c *Cache) GetPrimaryIP(ctx context.Context, hostname string) (string, error) {
	if c.rdb != nil {
		if ip, err := c.rdb.Get(ctx, cacheKey(hostname)).Result(); err == nil {
			return ip, nil
		}
	}

	ip, err := c.store.GetPrimaryIP(hostname)
	if err != nil {
		return "", err
	}

	if c.rdb != nil && ip != "" {
		c.rdb.Set(ctx, cacheKey(hostname), ip, c.ttl)
	}
	return ip, nil
}

// Invalidate drops any cached entry for hostname, used after an inventory
// write changes which interface is primary for it.
func (c *Cache) Invalidate(ctx context.Context, hostname string) {
	if c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, cacheKey(hostname))
}

func cacheKey(hostname string) string {
	return "netwalker:primary_ip:" + hostname
}

// Close releases the Redis client, if one was created.
func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
