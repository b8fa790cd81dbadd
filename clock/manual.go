package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Manual is a virtual clock for deterministic tests. Scheduled callbacks
// run only when time is moved forward with [Manual.Advance] or
// [Manual.Set], in deadline order; callbacks sharing a deadline run in the
// order they were scheduled.
//
// Callbacks are invoked on the goroutine that advances the clock, with no
// internal lock held, so they may schedule further callbacks. A callback
// scheduled during an advance runs in the same advance if its deadline is
// not after the target time.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers timerHeap
}

// NewManual returns a Manual clock positioned at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current virtual time.
func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock has advanced by d.
// A non-positive d makes f due immediately; it still runs only on the
// next Advance or Set.
func (c *Manual) AfterFunc(d time.Duration, f func()) Timer {
	if f == nil {
		panic("clock: AfterFunc requires non-nil callback")
	}
	if d < 0 {
		d = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTimer{
		c:   c,
		at:  c.now.Add(d),
		seq: c.seq,
		fn:  f,
	}
	c.seq++
	heap.Push(&c.timers, t)
	return t
}

// Advance moves the clock forward by d, running every callback that
// becomes due. Advance panics if d is negative.
func (c *Manual) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: Advance requires non-negative duration")
	}
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	c.runUntil(target)
}

// Set moves the clock to t, running every callback due at or before t.
// Setting a time before the current time only runs callbacks that are
// already due.
func (c *Manual) Set(t time.Time) {
	c.runUntil(t)
}

// Pending returns the number of scheduled callbacks that have not run
// and were not stopped.
func (c *Manual) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Manual) runUntil(target time.Time) {
	for {
		c.mu.Lock()
		if len(c.timers) == 0 || c.timers[0].at.After(target) {
			if target.After(c.now) {
				c.now = target
			}
			c.mu.Unlock()
			return
		}

		t := heap.Pop(&c.timers).(*manualTimer)
		if t.at.After(c.now) {
			c.now = t.at
		}
		c.mu.Unlock()

		t.fn()
	}
}

type manualTimer struct {
	c     *Manual
	at    time.Time
	seq   uint64
	fn    func()
	index int // position in the heap, -1 once fired or stopped
}

// Stop implements Timer.
func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	if t.index < 0 {
		return false
	}
	heap.Remove(&t.c.timers, t.index)
	return true
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*manualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
