package coalesce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned to waiters when the group is closed while their call
// is still pending, and to any Do issued after Close.
var ErrClosed = errors.New("coalesce: group closed")

type outcome[R any] struct {
	val R
	err error
}

// pendingCall gathers every caller waiting on one debounced request for a key.
type pendingCall[R any] struct {
	timer   *time.Timer
	waiters []chan outcome[R]
	produce func(ctx context.Context) (R, error)
	ctx     context.Context
}

// Group coalesces concurrent calls per key behind a debounce window.
// The zero value is not usable; construct with New.
type Group[R any] struct {
	pending map[string]*pendingCall[R]
	opts    *options[R]
	mu      sync.Mutex
	closed  bool
}

// New creates a coalescing group.
//
// Example:
//
//	g := coalesce.New[ValidationResult](
//	    coalesce.WithWindow[ValidationResult](500 * time.Millisecond),
//	    coalesce.WithCache(results, 30*time.Second),
//	)
func New[R any](opts ...Option[R]) *Group[R] {
	o := defaultOptions[R]()
	for _, opt := range opts {
		opt(o)
	}
	return &Group[R]{
		pending: make(map[string]*pendingCall[R]),
		opts:    o,
	}
}

// Do returns the result for key, either from the result cache or by joining
// the key's pending call. The first caller for a key arms the debounce timer;
// when it fires, produce runs exactly once and its outcome is delivered to
// every waiter. The producer supplied by the first caller is the one invoked.
//
// A caller whose context is canceled abandons the wait and receives ctx.Err();
// the pending call keeps running for the remaining waiters and still
// populates the cache.
func (g *Group[R]) Do(ctx context.Context, key string, produce func(ctx context.Context) (R, error)) (R, error) {
	// Cache lookups happen before joining the window so every waiter of one
	// pending call observes the same single outcome.
	if g.opts.cache != nil {
		if v, err := g.opts.cache.Get(ctx, key); err == nil {
			return v, nil
		}
	}

	ch := make(chan outcome[R], 1)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		var zero R
		return zero, ErrClosed
	}

	pc, ok := g.pending[key]
	if !ok {
		pc = &pendingCall[R]{
			produce: produce,
			// The producer must outlive the first caller: later joiners
			// depend on its outcome even if the initiator gives up.
			ctx: context.WithoutCancel(ctx),
		}
		g.pending[key] = pc
		pc.timer = time.AfterFunc(g.opts.window, func() { g.fire(key) })
	}
	pc.waiters = append(pc.waiters, ch)
	g.mu.Unlock()

	select {
	case out := <-ch:
		return out.val, out.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Len reports the number of keys with a pending call, for observability.
func (g *Group[R]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Close cancels all armed timers and fails every waiter with ErrClosed.
// Subsequent Do calls return ErrClosed.
func (g *Group[R]) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true

	var abandoned []chan outcome[R]
	for key, pc := range g.pending {
		pc.timer.Stop()
		abandoned = append(abandoned, pc.waiters...)
		// An in-flight producer re-reads waiters after it returns; clear
		// them so its late broadcast reaches nobody twice.
		pc.waiters = nil
		delete(g.pending, key)
	}
	g.mu.Unlock()

	var zero R
	for _, ch := range abandoned {
		ch <- outcome[R]{val: zero, err: ErrClosed}
	}

	return nil
}

// fire runs when the debounce window for key elapses: it invokes the producer
// once and broadcasts the outcome. The key stays registered while the
// producer is in flight so late callers join the same outcome instead of
// starting a second network call.
func (g *Group[R]) fire(key string) {
	g.mu.Lock()
	pc, ok := g.pending[key]
	if !ok || g.closed {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	val, err := pc.produce(pc.ctx)

	if err == nil && g.opts.cache != nil {
		// Populate the cache before releasing waiters so a waiter that
		// immediately re-reads observes its own result.
		_ = g.opts.cache.Set(pc.ctx, key, val, g.opts.cacheTTL)
	}
	if err != nil {
		g.opts.log.Debug("coalesced producer failed", "key", key, "error", err)
	}

	g.mu.Lock()
	delete(g.pending, key)
	waiters := pc.waiters
	pc.waiters = nil
	g.mu.Unlock()

	for _, ch := range waiters {
		ch <- outcome[R]{val: val, err: err}
	}
}
