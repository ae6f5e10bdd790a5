package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single analytics record.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ClientID   string         `json:"client_id"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Sender delivers one event to the analytics backend. The apiclient's Post
// satisfies this with a small closure.
type Sender func(ctx context.Context, ev Event) error

// Tracker queues events and delivers them in the background.
type Tracker struct {
	send     Sender
	clientID string
	log      *slog.Logger
	queue    chan Event
	done     chan struct{}
	wg       sync.WaitGroup
	closing  sync.Once
}

// Option configures the tracker.
type Option func(*Tracker)

// WithLogger sets the logger for dropped events and delivery failures.
func WithLogger(log *slog.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithQueueSize sets the buffer capacity. Events beyond it are dropped.
// Default: 128.
func WithQueueSize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.queue = make(chan Event, n)
		}
	}
}

// New creates a tracker and starts its delivery worker. Every event carries a
// per-process client instance ID so the backend can group one tab's activity.
func New(send Sender, opts ...Option) *Tracker {
	t := &Tracker{
		send:     send,
		clientID: uuid.NewString(),
		log:      slog.New(slog.DiscardHandler),
		queue:    make(chan Event, 128),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.wg.Add(1)
	go t.worker()

	return t
}

// Track enqueues an event. It never blocks: when the queue is full the event
// is dropped and logged.
func (t *Tracker) Track(name string, props map[string]any) {
	ev := Event{
		ID:         uuid.NewString(),
		Name:       name,
		ClientID:   t.clientID,
		Properties: props,
		OccurredAt: time.Now().UTC(),
	}

	select {
	case t.queue <- ev:
	default:
		t.log.Debug("analytics event dropped: queue full", "event", name)
	}
}

// Close stops accepting events and drains the queue, waiting up to the given
// timeout for in-flight deliveries.
func (t *Tracker) Close(timeout time.Duration) {
	t.closing.Do(func() { close(t.done) })

	finished := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(timeout):
		t.log.Debug("analytics shutdown timed out with events in flight")
	}
}

func (t *Tracker) worker() {
	defer t.wg.Done()

	for {
		select {
		case ev := <-t.queue:
			t.deliver(ev)
		case <-t.done:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case ev := <-t.queue:
					t.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (t *Tracker) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := t.send(ctx, ev); err != nil {
		// Swallowed: analytics failures never surface to callers.
		t.log.Debug("analytics delivery failed", "event", ev.Name, "error", err)
	}
}
