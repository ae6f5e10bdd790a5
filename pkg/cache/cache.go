package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache with TTL-bounded freshness.
//
// Implementations must treat expiry as a hard boundary: a Get that discovers
// an expired entry evicts it and reports ErrNotFound, never the stale value.
type Cache[V any] interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) (V, error)

	// Set stores a value with the given TTL, overwriting any existing entry.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a key from the cache. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key that starts with the given prefix.
	// Used by push-driven invalidation to drop a whole family of derived
	// results (e.g. all validation results for one coupon code).
	DeletePrefix(ctx context.Context, prefix string) error

	// Has checks whether a key exists and has not expired.
	Has(ctx context.Context, key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error

	// Close releases resources (stops background goroutines, etc.).
	Close() error
}

// Marshaler serializes and deserializes cache values for storage backends
// that require a byte representation (e.g., Redis).
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

var sfGroup singleflight.Group

type loadResult[V any] struct {
	val V
	ttl time.Duration
}

// flightKey scopes a flight to one cache instance. Distinct caches may hold
// different value types under equal keys, and a flight shared across them
// would hand one side a result of the wrong type.
func flightKey[V any](c Cache[V], key string) string {
	return fmt.Sprintf("%p:%s", c, key)
}

// GetOrSet retrieves a value from the cache, or calls load to compute it on a
// miss. Concurrent misses for the same key share a single load invocation via
// singleflight, so a burst of callers produces one backend round trip.
//
// The loader returns the value, a TTL for caching, and an error. A loader
// error is returned to every waiting caller and nothing is cached: failures
// must be retried, not remembered.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, load func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := sfGroup.Do(flightKey(c, key), func() (any, error) {
		val, ttl, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return loadResult[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := v.(loadResult[V])

	// Best-effort population; a failed Set must not fail the read.
	_ = c.Set(ctx, key, r.val, r.ttl)

	return r.val, nil
}
