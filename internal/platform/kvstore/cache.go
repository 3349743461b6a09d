package kvstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache is a two-tier typed result cache: a process-local map consulted
// first, then the durable TTL store. A hit at either tier short-circuits
// provider calls and all resilience bookkeeping for the request.
//
// Each cache gets its own key prefix, so validation and geocoding results
// never share a namespace.
type Cache[T any] struct {
	store  Store
	prefix string
	ttl    time.Duration
	local  sync.Map
}

// NewCache creates a cache writing through to store under prefix with the
// given TTL. The local tier lives for the process lifetime and is bounded in
// practice by the key space of addresses a single instance sees.
func NewCache[T any](store Store, prefix string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{store: store, prefix: prefix, ttl: ttl}
}

// Get returns the cached value for key. Store errors degrade to a miss; a
// flaky cache backend must never fail a lookup.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	if v, ok := c.local.Load(key); ok {
		return v.(T), true
	}

	raw, ok, err := c.store.Get(ctx, c.prefix+key)
	if err != nil || !ok {
		return zero, false
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, false
	}
	c.local.Store(key, out)
	return out, true
}

// Set stores the value at both tiers. The durable write error is returned so
// callers can log it, but the local tier is always populated.
func (c *Cache[T]) Set(ctx context.Context, key string, value T) error {
	c.local.Store(key, value)

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.prefix+key, string(raw), c.ttl)
}
