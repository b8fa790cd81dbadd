package reactive

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type handleState uint8

const (
	handlePending handleState = iota
	handleResolved
	handleFailed
)

// Handle carries the outcome of one queued operation. It is
// single-assignment: it settles exactly once, to a value or to an error,
// and every observer sees that same outcome no matter when it subscribes.
//
// Observers registered while the handle is pending are notified when it
// settles; observers registered afterwards are notified synchronously
// inside Subscribe.
type Handle[T any] struct {
	id uuid.UUID

	mu      sync.Mutex
	state   handleState
	val     T
	err     error
	waiters []handleWaiter[T]
	nextID  uint64
	done    chan struct{}
}

type handleWaiter[T any] struct {
	id      uint64
	onValue func(T)
	onError func(error)
}

func newHandle[T any](id uuid.UUID) *Handle[T] {
	return &Handle[T]{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the identifier of the operation behind the handle.
func (h *Handle[T]) ID() uuid.UUID {
	return h.id
}

// Subscribe registers callbacks for the outcome. Exactly one of them is
// called, once. Either may be nil.
func (h *Handle[T]) Subscribe(onValue func(T), onError func(error)) Subscription {
	h.mu.Lock()
	switch h.state {
	case handleResolved:
		v := h.val
		h.mu.Unlock()
		if onValue != nil {
			onValue(v)
		}
		return NewSubscription(nil)
	case handleFailed:
		err := h.err
		h.mu.Unlock()
		if onError != nil {
			onError(err)
		}
		return NewSubscription(nil)
	}

	id := h.nextID
	h.nextID++
	h.waiters = append(h.waiters, handleWaiter[T]{id: id, onValue: onValue, onError: onError})
	h.mu.Unlock()

	return NewSubscription(func() { h.remove(id) })
}

// Observable exposes the outcome as a sequence that emits the value and
// completes, or fails with the error.
func (h *Handle[T]) Observable() *Observable[T] {
	return Create(func(o Observer[T]) Subscription {
		return h.Subscribe(
			func(v T) {
				o.OnNext(v)
				o.OnCompleted()
			},
			o.OnError,
		)
	})
}

// Wait blocks until the handle settles or ctx is done.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.val, h.err
}

// Done returns a channel that is closed once the handle settles.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Result returns the outcome without blocking. ok is false while the
// handle is still pending.
func (h *Handle[T]) Result() (v T, ok bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.val, h.state != handlePending, h.err
}

// Settled reports whether the handle holds an outcome.
func (h *Handle[T]) Settled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state != handlePending
}

func (h *Handle[T]) resolve(v T) bool {
	h.mu.Lock()
	if h.state != handlePending {
		h.mu.Unlock()
		return false
	}
	h.state = handleResolved
	h.val = v
	ws := h.waiters
	h.waiters = nil
	close(h.done)
	h.mu.Unlock()

	for _, w := range ws {
		if w.onValue != nil {
			w.onValue(v)
		}
	}
	return true
}

func (h *Handle[T]) fail(err error) bool {
	h.mu.Lock()
	if h.state != handlePending {
		h.mu.Unlock()
		return false
	}
	h.state = handleFailed
	h.err = err
	ws := h.waiters
	h.waiters = nil
	close(h.done)
	h.mu.Unlock()

	for _, w := range ws {
		if w.onError != nil {
			w.onError(err)
		}
	}
	return true
}

func (h *Handle[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, w := range h.waiters {
		if w.id == id {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			return
		}
	}
}
