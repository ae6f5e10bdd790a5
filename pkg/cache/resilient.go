package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Resilient wraps a Cache and absorbs backend failures: a failed read is
// reported as a miss, a failed write succeeds silently. The synchronization
// engine relies on this so that a degraded storage layer (quota exceeded,
// serialization failure, Redis down) costs cache efficiency, never
// correctness. Failures are logged at debug level.
type Resilient[V any] struct {
	next Cache[V]
	log  *slog.Logger
}

// NewResilient wraps the given cache. A nil logger discards the failure logs.
func NewResilient[V any](next Cache[V], log *slog.Logger) *Resilient[V] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resilient[V]{next: next, log: log}
}

// Get retrieves a value by key. Any backend failure is reported as ErrNotFound.
func (r *Resilient[V]) Get(ctx context.Context, key string) (V, error) {
	v, err := r.next.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.DebugContext(ctx, "cache read degraded to miss", "key", key, "error", err)
		}
		var zero V
		return zero, ErrNotFound
	}
	return v, nil
}

// Set stores a value; backend failures are swallowed.
func (r *Resilient[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if err := r.next.Set(ctx, key, value, ttl); err != nil {
		r.log.DebugContext(ctx, "cache write dropped", "key", key, "error", err)
	}
	return nil
}

// Delete removes a key; backend failures are swallowed.
func (r *Resilient[V]) Delete(ctx context.Context, key string) error {
	if err := r.next.Delete(ctx, key); err != nil {
		r.log.DebugContext(ctx, "cache delete dropped", "key", key, "error", err)
	}
	return nil
}

// DeletePrefix removes keys by prefix; backend failures are swallowed.
func (r *Resilient[V]) DeletePrefix(ctx context.Context, prefix string) error {
	if err := r.next.DeletePrefix(ctx, prefix); err != nil {
		r.log.DebugContext(ctx, "cache prefix delete dropped", "prefix", prefix, "error", err)
	}
	return nil
}

// Has reports whether a key exists; backend failures read as absent.
func (r *Resilient[V]) Has(ctx context.Context, key string) (bool, error) {
	ok, err := r.next.Has(ctx, key)
	if err != nil {
		r.log.DebugContext(ctx, "cache existence check degraded", "key", key, "error", err)
		return false, nil
	}
	return ok, nil
}

// Clear removes all entries; backend failures are swallowed.
func (r *Resilient[V]) Clear(ctx context.Context) error {
	if err := r.next.Clear(ctx); err != nil {
		r.log.DebugContext(ctx, "cache clear dropped", "error", err)
	}
	return nil
}

// Close closes the underlying cache.
func (r *Resilient[V]) Close() error {
	return r.next.Close()
}

var _ Cache[any] = (*Resilient[any])(nil)
