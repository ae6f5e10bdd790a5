package livesync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrymomot/livesync/pkg/fingerprint"
)

// Entity is a domain payload with a stable identifying key. The key is what
// push events reference and what derived results (validations, snapshots)
// are prefixed with in the result store.
type Entity interface {
	EntityKey() string
}

// Expirer is optionally implemented by entities carrying an explicit expiry.
// The engine treats an expired cached entity as a miss and refetches it, so
// client-side pre-validation never serves a payload the backend already
// considers dead.
type Expirer interface {
	ExpiresAt() (time.Time, bool)
}

// Config declares a domain for the engine: how to fetch its entities and how
// its push events and cache keys are shaped.
type Config[E Entity] struct {
	// Namespace is the realtime namespace and the topic subscribed after
	// every connect (e.g. "coupons").
	Namespace string

	// EntityName is the singular event-name stem: the engine listens for
	// "<EntityName>_updated", "<EntityName>_expired", and
	// "new_<EntityName>_available".
	EntityName string

	// FetchByID loads one entity by its backend id.
	FetchByID func(ctx context.Context, id string) (E, error)

	// FetchByKey loads one entity by its domain key (e.g. coupon code).
	// Optional; GetByKey returns ErrUnsupportedOperation when nil.
	FetchByKey func(ctx context.Context, key string) (E, error)

	// FetchList loads entities for a canonical filter string.
	FetchList func(ctx context.Context, filter string) ([]E, error)

	// CacheKeys returns every cache key one entity should be stored under,
	// without the namespace; the engine prefixes each with Namespace.
	// Optional; defaults to ["id:<EntityKey>"].
	CacheKeys func(e E) []string

	// KeyFromPayload extracts the entity key from a push payload.
	// Optional; the default reads the first of "id", "code", "key".
	KeyFromPayload func(data json.RawMessage) (string, bool)

	// EntityFromPayload decodes an "<EntityName>_updated" push payload into a
	// complete entity. Returning false marks the payload as partial, in which
	// case the engine invalidates by key instead of caching it. Optional;
	// when nil every update push invalidates.
	EntityFromPayload func(data json.RawMessage) (E, bool)

	// TTLs and the debounce window. Zero values pick the defaults below.
	EntityTTL time.Duration // default 5m
	ListTTL   time.Duration // default 1m
	ResultTTL time.Duration // default 30s
	Window    time.Duration // default 500ms
}

func (c *Config[E]) applyDefaults() {
	if c.EntityTTL == 0 {
		c.EntityTTL = 5 * time.Minute
	}
	if c.ListTTL == 0 {
		c.ListTTL = time.Minute
	}
	if c.ResultTTL == 0 {
		c.ResultTTL = 30 * time.Second
	}
	if c.Window == 0 {
		c.Window = 500 * time.Millisecond
	}
	if c.CacheKeys == nil {
		c.CacheKeys = func(e E) []string { return []string{"id:" + e.EntityKey()} }
	}
	if c.KeyFromPayload == nil {
		c.KeyFromPayload = defaultKeyFromPayload
	}
}

// Every cache and flight key carries the namespace, so engines sharing a
// store or a flight group never collide on equal ids or filter strings.
func (c *Config[E]) idKey(id string) string   { return fingerprint.Key(c.Namespace, "id", id) }
func (c *Config[E]) keyKey(key string) string { return fingerprint.Key(c.Namespace, "key", key) }
func (c *Config[E]) listKey(f string) string  { return fingerprint.Key(c.Namespace, "list", f) }
func (c *Config[E]) storeKey(k string) string { return fingerprint.Key(c.Namespace, k) }

func (c *Config[E]) resultKey(key, digest string) string {
	return fingerprint.Key(c.Namespace, key, digest)
}

func (c *Config[E]) resultPrefix(key string) string {
	return fingerprint.Key(c.Namespace, key) + ":"
}

// defaultKeyFromPayload reads the entity identifier a push payload is keyed
// by, trying the conventional field names in order.
func defaultKeyFromPayload(data json.RawMessage) (string, bool) {
	var payload struct {
		ID   string `json:"id"`
		Code string `json:"code"`
		Key  string `json:"key"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", false
	}
	for _, k := range []string{payload.ID, payload.Code, payload.Key} {
		if k != "" {
			return k, true
		}
	}
	return "", false
}

// entityExpired reports whether the entity carries an explicit expiry that
// has already passed.
func entityExpired(e any) bool {
	exp, ok := e.(Expirer)
	if !ok {
		return false
	}
	at, has := exp.ExpiresAt()
	return has && time.Now().After(at)
}
