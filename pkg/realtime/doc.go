// Package realtime maintains one persistent bidirectional connection per
// logical namespace (e.g. "coupons", "comparisons") and dispatches inbound
// server-pushed events to registered handlers.
//
// A Channel moves between three states: Disconnected, Connecting, Connected.
// Connect is idempotent and non-blocking; the dial happens in the background
// and a synthetic "connected" event fires on success. When the transport
// drops, the channel schedules a reconnect with capped exponential backoff.
// The attempt counter resets only on a confirmed Connected transition, never
// on a mere Connect call, so rapid connect/disconnect cycles cannot launder
// the backoff state. With a configured attempt cap, the channel stops
// retrying once the cap is exceeded and reports itself degraded until an
// explicit Disconnect/Connect cycle.
//
// Subscriptions are deliberately not queued: Subscribe is a no-op unless the
// channel is currently Connected. Callers re-subscribe from their "connected"
// handler, which also covers every reconnection.
package realtime
