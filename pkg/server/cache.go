package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type localEntry struct {
	Expires time.Time
	Data    []byte
}

// Cache is a redis backed json cache with a small in process layer in
// front of it. Entries are kept marshaled so a local hit never shares
// memory with the caller.
type Cache struct {
	client *redis.Client
	mu     sync.RWMutex
	local  map[string]localEntry
}

func NewCache(addr string, password string, db int) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		local: make(map[string]localEntry),
	}
}

// Get fills out when the key is present, locally or in redis. A missing
// key is not an error.
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	c.mu.RLock()
	entry, ok := c.local[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expires) {
		return true, json.Unmarshal(entry.Data, out)
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.SetRaw(ctx, key, data, expiration)
}

// GetRaw returns the stored bytes for key without decoding them, used for
// whole-response caching. A missing key returns false, a failing redis
// lookup is treated the same after logging.
func (c *Cache) GetRaw(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.local[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expires) {
		return entry.Data, true
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Cache read failed for %s: %v", key, err)
		return nil, false
	}
	return data, true
}

func (c *Cache) SetRaw(ctx context.Context, key string, data []byte, expiration time.Duration) error {
	c.mu.Lock()
	c.local[key] = localEntry{Expires: time.Now().Add(expiration), Data: data}
	c.mu.Unlock()
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.local, key)
	c.mu.Unlock()
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

type CacheHelper[V any] struct {
	Cache *Cache
}

func NewCacheHelper[V any](cache *Cache) *CacheHelper[V] {
	return &CacheHelper[V]{Cache: cache}
}

// Handle fills out from the cache, falling back to fn and storing its
// result under key. A failing cache never blocks the fallback.
func (h *CacheHelper[V]) Handle(key string, out *V, fn func() V, expiration time.Duration) error {
	ctx := context.Background()
	found, err := h.Cache.Get(ctx, key, out)
	if found && err == nil {
		return nil
	}
	if err != nil {
		log.Printf("Cache read failed for %s: %v", key, err)
	}
	*out = fn()
	return h.Cache.Set(ctx, key, *out, expiration)
}
