package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Channel maintains one persistent connection to a namespaced realtime
// endpoint and dispatches inbound events to registered handlers.
//
// All exported methods are safe for concurrent use.
type Channel struct {
	url       string
	transport Transport
	opts      *options

	mu         sync.Mutex
	state      State
	conn       Conn
	handlers   map[string][]Handler
	retryTimer *time.Timer
	policy     *backoff.ExponentialBackOff
	attempt    int
	degraded   bool
	// gen distinguishes connection generations: callbacks from a torn-down
	// connection carry a stale gen and are ignored.
	gen int
}

// New creates a channel for the given namespace endpoint URL.
// The channel starts Disconnected; call Connect to bring it up.
func New(url string, transport Transport, opts ...Option) *Channel {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = o.initialDelay
	policy.MaxInterval = o.maxDelay
	policy.Multiplier = 2
	// Deterministic delays; herd protection comes from the cap.
	policy.RandomizationFactor = 0
	policy.Reset()

	return &Channel{
		url:       url,
		transport: transport,
		opts:      o,
		handlers:  make(map[string][]Handler),
		policy:    policy,
	}
}

// Connect brings the channel up. It is idempotent: a call while Connecting or
// Connected is a no-op. The dial runs in the background; observe the result
// via the "connected" event or IsConnected.
//
// Connect never resets the backoff state; only a confirmed Connected
// transition does. A degraded channel stays down until Disconnect is called
// first.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.state != StateDisconnected || c.degraded {
		c.mu.Unlock()
		return
	}
	// A manual Connect supersedes a scheduled retry; the old timer must not
	// dial on top of this attempt.
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.state = StateConnecting
	gen := c.gen
	c.mu.Unlock()

	go c.dial(gen)
}

// Disconnect tears down the transport, cancels any pending retry, and resets
// the degraded flag and attempt counter. The channel stays Disconnected until
// Connect is called again.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.gen++
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	conn := c.conn
	c.conn = nil
	wasUp := c.state != StateDisconnected
	c.state = StateDisconnected
	c.degraded = false
	c.attempt = 0
	c.policy.Reset()
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasUp {
		c.dispatch(EventDisconnected, nil)
	}
}

// On registers a handler for a named event. Multiple handlers per event are
// invoked in registration order. Register handlers before Connect to avoid
// missing early events.
func (c *Channel) On(event string, h Handler) {
	if h == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Subscribe sends a join message for the topic. If the channel is not
// currently Connected the call is a no-op: subscriptions are not queued, and
// callers re-subscribe from their "connected" handler.
func (c *Channel) Subscribe(topic string) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return nil
	}

	if err := conn.WriteJSON(subscribeRequest{Action: "subscribe", Topic: topic}); err != nil {
		c.opts.log.Warn("subscribe failed", "topic", topic, "error", err)
		return err
	}
	return nil
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the channel is currently Connected.
func (c *Channel) IsConnected() bool {
	return c.State() == StateConnected
}

// Degraded reports whether the channel gave up reconnecting after exceeding
// the configured attempt cap.
func (c *Channel) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// dial attempts one connection for the given generation.
func (c *Channel) dial(gen int) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.dialTimeout)
	conn, err := c.transport.Dial(ctx, c.url)
	cancel()

	if err != nil {
		c.opts.log.Warn("realtime dial failed", "url", c.url, "error", err)
		c.handleFailure(gen)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		// Disconnect happened while dialing.
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.state = StateConnected
	c.conn = conn
	// Confirmed success is the only place the backoff state resets.
	c.attempt = 0
	c.policy.Reset()
	c.mu.Unlock()

	c.opts.log.Info("realtime channel connected", "url", c.url)
	c.dispatch(EventConnected, nil)

	go c.readLoop(gen, conn)
}

// readLoop pumps inbound messages until the connection drops.
func (c *Channel) readLoop(gen int, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := gen != c.gen
			c.mu.Unlock()
			if stale {
				return
			}
			c.opts.log.Warn("realtime connection lost", "url", c.url, "error", err)
			_ = conn.Close()
			c.dispatch(EventDisconnected, nil)
			c.handleFailure(gen)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			c.opts.log.Debug("dropping malformed realtime message", "error", err)
			continue
		}
		c.dispatch(msg.Event, msg.Data)
	}
}

// handleFailure transitions to Disconnected and schedules the next retry
// with exponential backoff, or marks the channel degraded once the attempt
// cap is exceeded.
func (c *Channel) handleFailure(gen int) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	c.conn = nil
	c.state = StateDisconnected
	c.attempt++

	if c.opts.maxAttempts > 0 && c.attempt > c.opts.maxAttempts {
		c.degraded = true
		c.mu.Unlock()
		c.opts.log.Error("realtime channel degraded: reconnect attempts exhausted",
			"url", c.url, "attempts", c.attempt-1)
		return
	}

	delay := c.policy.NextBackOff()
	attempt := c.attempt
	c.retryTimer = time.AfterFunc(delay, func() { c.retry(gen) })
	c.mu.Unlock()

	c.opts.log.Info("scheduling realtime reconnect", "url", c.url, "attempt", attempt, "delay", delay)
}

// retry fires from the backoff timer and starts the next dial.
func (c *Channel) retry(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateDisconnected || c.degraded {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	c.dial(gen)
}

// dispatch routes a named event to its handlers. Events nobody listens for
// are logged and dropped.
func (c *Channel) dispatch(event string, data json.RawMessage) {
	c.mu.Lock()
	handlers := make([]Handler, len(c.handlers[event]))
	copy(handlers, c.handlers[event])
	c.mu.Unlock()

	if len(handlers) == 0 {
		c.opts.log.Debug("no handlers for realtime event", "event", event)
		return
	}

	for _, h := range handlers {
		h(data)
	}
}
