// Package kvstore provides the durable TTL key-value store backing result
// caches, rate-limit windows, circuit-breaker state, and the territory
// collection. Redis is the production backend; the in-memory store serves
// single-process deployments and tests.
package kvstore

import (
	"context"
	"time"
)

// Store is a TTL key-value store. Values expire on their own; there is no
// manual sweep.
type Store interface {
	// Get returns the value for key and whether it exists. Expired keys
	// behave as absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key with the given TTL. A non-positive TTL
	// stores the value without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Increment adds one to the integer counter at key and returns the new
	// value. The first increment of a fresh counter starts its TTL; later
	// increments within the window do not extend it.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
