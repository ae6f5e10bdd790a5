package livesync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/livesync/pkg/analytics"
	"github.com/dmitrymomot/livesync/pkg/cache"
	"github.com/dmitrymomot/livesync/pkg/coalesce"
	"github.com/dmitrymomot/livesync/pkg/realtime"
)

// Engine is the generic synchronization core: cache-first reads, coalesced
// validations, push-driven invalidation, and mutation bookkeeping. Domain
// packages wrap it with their concrete types; E is the domain entity, R the
// domain's coalesced result (validation outcome, snapshot, ...).
//
// The engine has an explicit lifecycle: Initialize connects the realtime
// channel and arms the pipeline, Cleanup disconnects and cancels outstanding
// debounce timers. Every operation between Cleanup and the next Initialize
// fails with ErrNotInitialized.
type Engine[E Entity, R any] struct {
	cfg     Config[E]
	channel *realtime.Channel
	tracker *analytics.Tracker
	log     *slog.Logger

	rawEntities cache.Cache[E]
	rawLists    cache.Cache[[]E]
	rawResults  cache.Cache[R]

	entities *cache.Resilient[E]
	lists    *cache.Resilient[[]E]
	results  *cache.Resilient[R]

	mu          sync.Mutex
	group       *coalesce.Group[R]
	initialized bool
	wired       bool
}

// New creates an engine for the given domain config and realtime channel.
// The channel is injected so tests can drive it with a fake transport; the
// engine owns its lifecycle from Initialize onward.
func New[E Entity, R any](cfg Config[E], channel *realtime.Channel, opts ...Option[E, R]) *Engine[E, R] {
	cfg.applyDefaults()

	e := &Engine[E, R]{
		cfg:     cfg,
		channel: channel,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rawEntities == nil {
		e.rawEntities = cache.NewMemory[E](cache.WithDefaultTTL(cfg.EntityTTL))
	}
	if e.rawLists == nil {
		e.rawLists = cache.NewMemory[[]E](cache.WithDefaultTTL(cfg.ListTTL))
	}
	if e.rawResults == nil {
		e.rawResults = cache.NewMemory[R](cache.WithDefaultTTL(cfg.ResultTTL))
	}

	e.entities = cache.NewResilient(e.rawEntities, e.log)
	e.lists = cache.NewResilient(e.rawLists, e.log)
	e.results = cache.NewResilient(e.rawResults, e.log)

	return e
}

// Initialize wires push events into the cache, connects the realtime channel,
// and arms the coalescing pipeline. It must complete before any other
// operation. A second Initialize without an intervening Cleanup returns
// ErrAlreadyInitialized.
func (e *Engine[E, R]) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return ErrAlreadyInitialized
	}

	if !e.wired {
		e.wirePushEvents()
		e.wired = true
	}

	e.group = coalesce.New[R](
		coalesce.WithWindow[R](e.cfg.Window),
		coalesce.WithCache(cache.Cache[R](e.results), e.cfg.ResultTTL),
		coalesce.WithLogger[R](e.log),
	)

	e.channel.Connect()
	e.initialized = true

	e.log.InfoContext(ctx, "sync engine initialized", "namespace", e.cfg.Namespace)

	return nil
}

// Cleanup disconnects the channel and cancels outstanding debounce timers,
// failing their waiters. After Cleanup, operations return ErrNotInitialized
// until Initialize is called again. Cleanup is idempotent.
func (e *Engine[E, R]) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil
	}

	e.channel.Disconnect()
	if e.group != nil {
		_ = e.group.Close()
		e.group = nil
	}
	e.initialized = false

	e.log.Info("sync engine cleaned up", "namespace", e.cfg.Namespace)

	return nil
}

// IsConnected reports whether the realtime channel is currently up. A false
// return does not fail reads or validations; it only means push-driven
// invalidation is paused until the channel reconnects.
func (e *Engine[E, R]) IsConnected() bool {
	e.mu.Lock()
	initialized := e.initialized
	e.mu.Unlock()
	return initialized && e.channel.IsConnected()
}

// ClearCache drops every cached entity, list, and derived result. Best
// effort by construction: the resilient wrappers cannot fail.
func (e *Engine[E, R]) ClearCache(ctx context.Context) {
	_ = e.entities.Clear(ctx)
	_ = e.lists.Clear(ctx)
	_ = e.results.Clear(ctx)
}

// OnPush registers an extra handler for a domain-specific push event (e.g.
// "usage_limit_reached"). Safe to call before Initialize.
func (e *Engine[E, R]) OnPush(event string, h realtime.Handler) {
	e.channel.On(event, h)
}

// InvalidateEntity drops the entity's cache entries and every derived result
// prefixed with its key. Exposed for domain handlers registered via OnPush.
func (e *Engine[E, R]) InvalidateEntity(ctx context.Context, entityKey string) {
	_ = e.entities.Delete(ctx, e.cfg.idKey(entityKey))
	_ = e.entities.Delete(ctx, e.cfg.keyKey(entityKey))
	_ = e.results.DeletePrefix(ctx, e.cfg.resultPrefix(entityKey))
	_ = e.lists.Clear(ctx)
}

func (e *Engine[E, R]) ensureInitialized() (*coalesce.Group[R], error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return e.group, nil
}

// storeEntity caches the entity under every key the domain declares for it.
func (e *Engine[E, R]) storeEntity(ctx context.Context, ent E, ttl time.Duration) {
	for _, k := range e.cfg.CacheKeys(ent) {
		_ = e.entities.Set(ctx, e.cfg.storeKey(k), ent, ttl)
	}
}
