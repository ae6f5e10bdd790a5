package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/pkg/analytics"
)

type capture struct {
	mu     sync.Mutex
	events []analytics.Event
	err    error
}

func (c *capture) send(_ context.Context, ev analytics.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return c.err
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestTracker_Track(t *testing.T) {
	t.Parallel()

	t.Run("delivers queued events", func(t *testing.T) {
		t.Parallel()

		sink := &capture{}
		tr := analytics.New(sink.send)

		tr.Track("coupon_applied", map[string]any{"code": "SAVE10"})
		tr.Track("coupon_removed", nil)

		require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, time.Millisecond)
		tr.Close(time.Second)

		sink.mu.Lock()
		defer sink.mu.Unlock()
		require.Equal(t, "coupon_applied", sink.events[0].Name)
		require.NotEmpty(t, sink.events[0].ID)
		require.NotEmpty(t, sink.events[0].ClientID)
		require.Equal(t, sink.events[0].ClientID, sink.events[1].ClientID)
		require.False(t, sink.events[0].OccurredAt.IsZero())
	})

	t.Run("delivery failures are swallowed", func(t *testing.T) {
		t.Parallel()

		sink := &capture{err: errors.New("analytics backend down")}
		tr := analytics.New(sink.send)

		// Track has no error to return; the only observable effect is that
		// nothing panics and the worker keeps going.
		tr.Track("comparison_shared", nil)
		tr.Track("comparison_shared", nil)

		require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, time.Millisecond)
		tr.Close(time.Second)
	})

	t.Run("never blocks when the queue is full", func(t *testing.T) {
		t.Parallel()

		blocked := make(chan struct{})
		tr := analytics.New(func(context.Context, analytics.Event) error {
			<-blocked
			return nil
		}, analytics.WithQueueSize(1))
		defer close(blocked)

		done := make(chan struct{})
		go func() {
			for range 50 {
				tr.Track("burst", nil)
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Track blocked on a full queue")
		}
	})

	t.Run("Close drains the queue", func(t *testing.T) {
		t.Parallel()

		sink := &capture{}
		tr := analytics.New(sink.send)

		for range 10 {
			tr.Track("drain", nil)
		}
		tr.Close(time.Second)

		require.Equal(t, 10, sink.count())
	})
}
