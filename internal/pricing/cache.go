package pricing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/domeo/domeo-backend/pkg/catalog"
	"github.com/domeo/domeo-backend/pkg/redis"
	"github.com/shopspring/decimal"
)

// Cache stores resolved door prices by attribute fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (*Result, bool, error)
	Set(ctx context.Context, fingerprint string, result Result, ttl time.Duration) error
}

type cachedResult struct {
	Price     decimal.Decimal         `json:"price"`
	SKU       string                  `json:"sku"`
	Breakdown []catalog.BreakdownLine `json:"breakdown,omitempty"`
}

// RedisCache shares prices between instances.
type RedisCache struct {
	kv redis.KV
}

func NewRedisCache(kv redis.KV) *RedisCache {
	return &RedisCache{kv: kv}
}

func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*Result, bool, error) {
	raw, err := c.kv.Get(ctx, c.kv.PriceKey(fingerprint))
	if err != nil {
		if redis.IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var cached cachedResult
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false, err
	}
	return &Result{Price: cached.Price, SKU: cached.SKU, Breakdown: cached.Breakdown}, true, nil
}

func (c *RedisCache) Set(ctx context.Context, fingerprint string, result Result, ttl time.Duration) error {
	payload, err := json.Marshal(cachedResult{Price: result.Price, SKU: result.SKU, Breakdown: result.Breakdown})
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, c.kv.PriceKey(fingerprint), string(payload), ttl)
}

type memoryEntry struct {
	result  Result
	expires time.Time
}

// MemoryCache is a process-local TTL cache used when Redis is disabled.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, fingerprint string) (*Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, fingerprint)
		return nil, false, nil
	}
	result := entry.result
	return &result, true, nil
}

func (c *MemoryCache) Set(_ context.Context, fingerprint string, result Result, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = memoryEntry{result: result, expires: c.now().Add(ttl)}
	return nil
}

// Clear drops every cached price.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

// Len reports the number of live and expired entries still held.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
