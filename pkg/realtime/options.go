package realtime

import (
	"log/slog"
	"time"
)

// Option configures a Channel.
type Option func(*options)

type options struct {
	log          *slog.Logger
	initialDelay time.Duration
	maxDelay     time.Duration
	dialTimeout  time.Duration
	maxAttempts  int
}

func defaultOptions() *options {
	return &options{
		log:          slog.New(slog.DiscardHandler),
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		dialTimeout:  10 * time.Second,
		maxAttempts:  0, // unbounded: keep retrying until Disconnect
	}
}

// WithBackoff sets the reconnect delay bounds. Delays double per failed
// attempt starting from initial, capped at maxDelay.
// Default: 1s initial, 30s cap.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(o *options) {
		if initial > 0 {
			o.initialDelay = initial
		}
		if maxDelay > 0 {
			o.maxDelay = maxDelay
		}
	}
}

// WithMaxAttempts caps consecutive failed reconnect attempts. Once exceeded,
// the channel stops retrying and reports itself degraded. Zero means
// unbounded.
// Default: 0 (unbounded).
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		o.maxAttempts = n
	}
}

// WithDialTimeout bounds each individual dial attempt.
// Default: 10 seconds.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithLogger sets the channel's logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
