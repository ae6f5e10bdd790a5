package livesync

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/livesync/pkg/analytics"
	"github.com/dmitrymomot/livesync/pkg/cache"
)

// Option configures an Engine.
type Option[E Entity, R any] func(*Engine[E, R])

// WithEntityCache replaces the default in-memory entity cache. The engine
// wraps whatever is supplied in a resilience layer, so a failing backend
// degrades to misses instead of failing operations.
func WithEntityCache[E Entity, R any](c cache.Cache[E]) Option[E, R] {
	return func(e *Engine[E, R]) {
		if c != nil {
			e.rawEntities = c
		}
	}
}

// WithListCache replaces the default in-memory list cache.
func WithListCache[E Entity, R any](c cache.Cache[[]E]) Option[E, R] {
	return func(e *Engine[E, R]) {
		if c != nil {
			e.rawLists = c
		}
	}
}

// WithResultStore replaces the default in-memory result store, e.g. with a
// Redis-backed cache shared between storefront processes. Validation and
// snapshot results live here, keyed "<namespace>:<entityKey>:<fingerprint>".
func WithResultStore[E Entity, R any](c cache.Cache[R]) Option[E, R] {
	return func(e *Engine[E, R]) {
		if c != nil {
			e.rawResults = c
		}
	}
}

// WithAnalytics attaches a tracker; mutations report their events through it.
// The tracker's lifecycle stays with the caller.
func WithAnalytics[E Entity, R any](t *analytics.Tracker) Option[E, R] {
	return func(e *Engine[E, R]) {
		e.tracker = t
	}
}

// WithWindow overrides the domain's debounce window. Shorter windows trade
// coalescing for latency.
func WithWindow[E Entity, R any](w time.Duration) Option[E, R] {
	return func(e *Engine[E, R]) {
		if w > 0 {
			e.cfg.Window = w
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger[E Entity, R any](log *slog.Logger) Option[E, R] {
	return func(e *Engine[E, R]) {
		if log != nil {
			e.log = log
		}
	}
}
