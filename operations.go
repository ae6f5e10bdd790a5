package livesync

import (
	"context"
	"time"

	"github.com/dmitrymomot/livesync/pkg/cache"
)

// Get returns the entity with the given backend id, serving from cache when
// fresh and fetching otherwise. Fetch failures surface as the apiclient's
// typed errors and create no cache entry.
func (e *Engine[E, R]) Get(ctx context.Context, id string) (E, error) {
	var zero E
	if _, err := e.ensureInitialized(); err != nil {
		return zero, err
	}
	return e.cachedFetch(ctx, e.cfg.idKey(id), func(ctx context.Context) (E, error) {
		return e.cfg.FetchByID(ctx, id)
	})
}

// GetByKey returns the entity with the given domain key (e.g. coupon code).
// Returns ErrUnsupportedOperation when the domain declares no key lookup.
func (e *Engine[E, R]) GetByKey(ctx context.Context, key string) (E, error) {
	var zero E
	if _, err := e.ensureInitialized(); err != nil {
		return zero, err
	}
	if e.cfg.FetchByKey == nil {
		return zero, ErrUnsupportedOperation
	}
	return e.cachedFetch(ctx, e.cfg.keyKey(key), func(ctx context.Context) (E, error) {
		return e.cfg.FetchByKey(ctx, key)
	})
}

// Peek returns the cached entity for an entity key without touching the
// network, trying the domain-key slot first and the id slot second. Domain
// adapters use it for client-side pre-validation (e.g. rejecting a coupon
// whose cached copy is already past its expiry), so an entity with a passed
// explicit expiry is still returned; judging it is the caller's business.
func (e *Engine[E, R]) Peek(ctx context.Context, key string) (E, bool) {
	if ent, err := e.entities.Get(ctx, e.cfg.keyKey(key)); err == nil {
		return ent, true
	}
	if ent, err := e.entities.Get(ctx, e.cfg.idKey(key)); err == nil {
		return ent, true
	}
	var zero E
	return zero, false
}

// List returns entities for a canonical filter string. Concurrent misses for
// the same filter share one fetch.
func (e *Engine[E, R]) List(ctx context.Context, filter string) ([]E, error) {
	if _, err := e.ensureInitialized(); err != nil {
		return nil, err
	}
	return cache.GetOrSet(ctx, cache.Cache[[]E](e.lists), e.cfg.listKey(filter),
		func(ctx context.Context) ([]E, time.Duration, error) {
			items, err := e.cfg.FetchList(ctx, filter)
			if err != nil {
				return nil, 0, err
			}
			return items, e.cfg.ListTTL, nil
		})
}

// Validate runs a coalesced domain computation. Calls sharing the same
// entityKey and fingerprint within the debounce window collapse into one
// producer invocation whose outcome every caller receives; fresh prior
// results are served from the result store without entering the window.
//
// Business-rule invalidity is a successful R, never an error: the producer
// should reject only when the operation could not be completed at all.
func (e *Engine[E, R]) Validate(ctx context.Context, entityKey, fingerprint string, produce func(ctx context.Context) (R, error)) (R, error) {
	group, err := e.ensureInitialized()
	if err != nil {
		var zero R
		return zero, err
	}
	return group.Do(ctx, e.cfg.resultKey(entityKey, fingerprint), produce)
}

// Mutation describes a state-changing backend call and its cache fallout.
type Mutation struct {
	// Operation names the mutation for logs.
	Operation string

	// Call performs the backend request. Mutations are deliberately not
	// coalesced: they are not idempotent.
	Call func(ctx context.Context) error

	// Invalidate lists entity keys whose cached copies and derived results
	// become stale when the call succeeds.
	Invalidate []string

	// Event, when non-empty, is reported to the analytics tracker on
	// success, fire-and-forget.
	Event      string
	EventProps map[string]any
}

// Mutate runs the call, invalidates affected cache entries on success, and
// fires the analytics event. Analytics can never fail the mutation.
func (e *Engine[E, R]) Mutate(ctx context.Context, m Mutation) error {
	if _, err := e.ensureInitialized(); err != nil {
		return err
	}

	if err := m.Call(ctx); err != nil {
		return err
	}

	for _, key := range m.Invalidate {
		e.InvalidateEntity(ctx, key)
	}

	if m.Event != "" && e.tracker != nil {
		e.tracker.Track(m.Event, m.EventProps)
	}

	e.log.DebugContext(ctx, "mutation applied", "operation", m.Operation, "invalidated", len(m.Invalidate))

	return nil
}

// cachedFetch serves from the entity cache, refetching when the entry is
// missing or carries an explicit expiry that has passed.
func (e *Engine[E, R]) cachedFetch(ctx context.Context, cacheKey string, fetch func(ctx context.Context) (E, error)) (E, error) {
	if ent, err := e.entities.Get(ctx, cacheKey); err == nil {
		if !entityExpired(ent) {
			return ent, nil
		}
		e.InvalidateEntity(ctx, ent.EntityKey())
	}

	ent, err := fetch(ctx)
	if err != nil {
		var zero E
		return zero, err
	}

	e.storeEntity(ctx, ent, e.cfg.EntityTTL)

	return ent, nil
}
