package reactive

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/baxromumarov/reactive/clock"
)

// LimitRate forwards the items of src so that no two are emitted closer
// together than interval. Unlike periodic sampling it never drops items
// and never delays an item that arrives after the gap has already passed:
// the first item goes out immediately, items arriving too fast are
// buffered in order and released one per interval.
//
// Completion of src is forwarded once every buffered item has been
// released. An error from src is forwarded immediately and discards the
// buffer. Releasing the subscription stops the pending timer and
// unsubscribes from src.
//
// Gaps are measured on clk; a nil clk uses the system clock.
// LimitRate panics if src is nil or interval is negative.
func LimitRate[T any](src *Observable[T], interval time.Duration, clk clock.Clock) *Observable[T] {
	if src == nil {
		panic("reactive: LimitRate requires non-nil source")
	}
	if interval < 0 {
		panic("reactive: LimitRate requires non-negative interval")
	}
	clk = clock.OrSystem(clk)

	return Create(func(o Observer[T]) Subscription {
		l := &rateLimiter[T]{
			out:      o,
			clk:      clk,
			interval: interval,
			lim:      rate.NewLimiter(rate.Every(interval), 1),
		}
		srcSub := src.Subscribe(l.next, l.fail, l.complete)

		return NewSubscription(func() {
			l.cancel()
			srcSub.Unsubscribe()
		})
	})
}

// rateLimiter holds the per-subscription state of LimitRate. At most one
// goroutine emits at a time (emitting), and at most one release is
// scheduled at a time (timer). Emission happens without mu held.
type rateLimiter[T any] struct {
	out      Observer[T]
	clk      clock.Clock
	interval time.Duration
	lim      *rate.Limiter

	mu        sync.Mutex
	buf       []T
	headDue   bool      // the head's reservation has matured
	lastAt    time.Time // when the previous item was emitted
	timer     clock.Timer
	emitting  bool
	completed bool
	err       error
	done      bool
}

func (l *rateLimiter[T]) next(v T) {
	l.mu.Lock()
	if l.done || l.err != nil {
		l.mu.Unlock()
		return
	}
	l.buf = append(l.buf, v)
	l.mu.Unlock()

	l.drain()
}

func (l *rateLimiter[T]) complete() {
	l.mu.Lock()
	l.completed = true
	l.mu.Unlock()

	l.drain()
}

func (l *rateLimiter[T]) fail(err error) {
	l.mu.Lock()
	if l.done || l.err != nil {
		l.mu.Unlock()
		return
	}
	l.err = err
	l.clearLocked()
	l.mu.Unlock()

	l.drain()
}

func (l *rateLimiter[T]) cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.done = true
	l.clearLocked()
}

func (l *rateLimiter[T]) clearLocked() {
	clear(l.buf)
	l.buf = nil
	l.headDue = false
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// release runs on the clock when the head's gap has elapsed.
func (l *rateLimiter[T]) release() {
	l.mu.Lock()
	l.timer = nil
	if len(l.buf) > 0 {
		l.headDue = true
	}
	l.mu.Unlock()

	l.drain()
}

// drain emits everything that may go out now. Only one goroutine drains
// at a time; others leave their work in the buffer for it.
func (l *rateLimiter[T]) drain() {
	l.mu.Lock()
	if l.emitting {
		l.mu.Unlock()
		return
	}
	l.emitting = true

	for !l.done {
		if l.err != nil {
			err := l.err
			l.done = true
			l.mu.Unlock()
			l.out.OnError(err)
			l.mu.Lock()
			break
		}

		if len(l.buf) == 0 {
			if l.completed {
				l.done = true
				l.mu.Unlock()
				l.out.OnCompleted()
				l.mu.Lock()
			}
			break
		}

		now := l.clk.Now()
		if !l.headDue {
			if l.timer != nil {
				break
			}
			if d := l.delay(now); d > 0 {
				l.timer = l.clk.AfterFunc(d, l.release)
				break
			}
		}

		v := l.buf[0]
		var zero T
		l.buf[0] = zero
		l.buf = l.buf[1:]
		l.headDue = false
		l.lastAt = now

		l.mu.Unlock()
		l.out.OnNext(v)
		l.mu.Lock()
	}

	l.emitting = false
	l.mu.Unlock()
}

// delay reserves the next slot and returns how long the head must wait.
// The limiter works in tokens per second, which can round its wait a
// nanosecond short, so the gap since the previous emission is enforced
// on top of it.
func (l *rateLimiter[T]) delay(now time.Time) time.Duration {
	d := l.lim.ReserveN(now, 1).DelayFrom(now)
	if !l.lastAt.IsZero() {
		d = max(d, l.lastAt.Add(l.interval).Sub(now))
	}
	return d
}
