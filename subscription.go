package reactive

import (
	"sync"
	"sync/atomic"
)

// Subscription is the token returned by Subscribe. Unsubscribe stops
// delivery and releases whatever the producer holds for the observer.
type Subscription interface {
	// Unsubscribe is idempotent; only the first call has an effect.
	Unsubscribe()

	// Closed reports whether Unsubscribe has been called.
	Closed() bool
}

type subscription struct {
	once     sync.Once
	closed   atomic.Bool
	teardown func()
}

// NewSubscription returns a Subscription that runs teardown exactly once,
// on the first call to Unsubscribe. teardown may be nil.
func NewSubscription(teardown func()) Subscription {
	return &subscription{teardown: teardown}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		if s.teardown != nil {
			s.teardown()
		}
	})
}

func (s *subscription) Closed() bool {
	return s.closed.Load()
}

// Composite groups subscriptions so they can be released together.
// The zero value is ready to use.
//
// Once a Composite has been unsubscribed, any subscription added to it is
// unsubscribed immediately.
type Composite struct {
	mu       sync.Mutex
	subs     []Subscription
	disposed bool
}

// Add registers sub with the composite and returns it, so calls can be
// chained at the point of subscription. A nil sub is ignored.
func (c *Composite) Add(sub Subscription) Subscription {
	if sub == nil {
		return nil
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		sub.Unsubscribe()
		return sub
	}
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	return sub
}

// Len returns the number of subscriptions held.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Unsubscribe releases every held subscription in the order they were added.
func (c *Composite) Unsubscribe() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// Closed reports whether the composite has been unsubscribed.
func (c *Composite) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
