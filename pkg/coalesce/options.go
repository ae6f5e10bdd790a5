package coalesce

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/livesync/pkg/cache"
)

// Option configures a Group.
type Option[R any] func(*options[R])

type options[R any] struct {
	cache    cache.Cache[R]
	log      *slog.Logger
	window   time.Duration
	cacheTTL time.Duration
}

func defaultOptions[R any]() *options[R] {
	return &options[R]{
		window: 500 * time.Millisecond,
		log:    slog.New(slog.DiscardHandler),
	}
}

// WithWindow sets the debounce window during which calls for one key are
// merged into a single producer invocation.
// Default: 500ms.
func WithWindow[R any](d time.Duration) Option[R] {
	return func(o *options[R]) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithCache attaches a result cache. Hits bypass the debounce window
// entirely; successful producer results are stored with the given TTL.
func WithCache[R any](c cache.Cache[R], ttl time.Duration) Option[R] {
	return func(o *options[R]) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// WithLogger sets the logger for producer failures.
func WithLogger[R any](log *slog.Logger) Option[R] {
	return func(o *options[R]) {
		if log != nil {
			o.log = log
		}
	}
}
