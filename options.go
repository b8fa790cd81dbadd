package reactive

import (
	"time"

	"github.com/baxromumarov/reactive/clock"
)

type queueConfig struct {
	clock           clock.Clock
	onEvent         func(Event)
	onMetrics       func(QueueStats)
	metricsInterval time.Duration
}

// QueueOption configures a [Queue].
type QueueOption func(*queueConfig)

func defaultQueueConfig() queueConfig {
	return queueConfig{
		clock: clock.System(),
	}
}

// WithClock sets the clock used to pace admissions and to schedule
// metrics. Tests pass a [clock.Manual] to drive the queue
// deterministically. A nil clock keeps the system clock.
func WithClock(c clock.Clock) QueueOption {
	return func(cfg *queueConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithOnEvent registers a hook invoked for every operation lifecycle
// change: submitted, admitted, resolved, failed and dropped.
//
// The hook runs synchronously on the goroutine that caused the change and
// must not block.
func WithOnEvent(fn func(Event)) QueueOption {
	return func(cfg *queueConfig) {
		cfg.onEvent = fn
	}
}

// WithQueueMetrics registers a periodic metrics callback that fires every
// interval on the queue's clock until the queue is closed.
//
// Panics if interval <= 0 or fn is nil.
func WithQueueMetrics(interval time.Duration, fn func(QueueStats)) QueueOption {
	if interval <= 0 {
		panic("reactive: WithQueueMetrics requires interval > 0")
	}
	if fn == nil {
		panic("reactive: WithQueueMetrics requires non-nil callback")
	}
	return func(cfg *queueConfig) {
		cfg.onMetrics = fn
		cfg.metricsInterval = interval
	}
}
