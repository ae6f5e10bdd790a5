package livesync

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/livesync/pkg/realtime"
)

// wirePushEvents routes the namespace's server pushes into cache updates.
// Server-side state changes (entity updated, expired, usage exhausted) stale
// the client cache the moment they arrive, without polling. Wiring happens
// once per engine; reconnections reuse it.
func (e *Engine[E, R]) wirePushEvents() {
	name := e.cfg.EntityName

	// Subscriptions are not queued by the channel, so the topic join rides
	// on every connected event, covering reconnects.
	e.channel.On(realtime.EventConnected, func(json.RawMessage) {
		if err := e.channel.Subscribe(e.cfg.Namespace); err != nil {
			e.log.Warn("topic subscription failed", "namespace", e.cfg.Namespace, "error", err)
		}
	})

	e.channel.On(name+"_updated", func(data json.RawMessage) {
		ctx := context.Background()

		// Only a payload the domain vouches for as complete may replace the
		// cached copy; a partial update decoded into the entity type would
		// zero every absent field and poison the cache.
		if e.cfg.EntityFromPayload != nil {
			if ent, ok := e.cfg.EntityFromPayload(data); ok && ent.EntityKey() != "" {
				e.storeEntity(ctx, ent, e.cfg.EntityTTL)
				_ = e.results.DeletePrefix(ctx, e.cfg.resultPrefix(ent.EntityKey()))
				_ = e.lists.Clear(ctx)
				return
			}
		}

		// Partial (or unverifiable) payload: invalidate and refetch on the
		// next read.
		if key, ok := e.cfg.KeyFromPayload(data); ok {
			e.InvalidateEntity(ctx, key)
		} else {
			e.log.Debug("update push without entity key dropped", "event", name+"_updated")
		}
	})

	e.channel.On(name+"_expired", func(data json.RawMessage) {
		key, ok := e.cfg.KeyFromPayload(data)
		if !ok {
			e.log.Debug("expiry push without entity key dropped", "event", name+"_expired")
			return
		}
		e.InvalidateEntity(context.Background(), key)
	})

	e.channel.On("new_"+name+"_available", func(json.RawMessage) {
		// A new entity changes what lists contain but invalidates nothing
		// fetched by id or key.
		_ = e.lists.Clear(context.Background())
	})
}
