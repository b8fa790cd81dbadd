package reactive

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidValue is returned by [Property.Set] when the validator rejects
// a value. The validator's own error is wrapped alongside it.
var ErrInvalidValue = errors.New("reactive: invalid value")

// Property is a value that can be read, written and observed. Subscribers
// receive the current value first and every accepted change after it.
//
// Set calls are serialized and observers are notified while Set holds the
// property's write lock, so observers see changes in the order they were
// made. Observers may call Get but must not call Set synchronously.
type Property[T any] struct {
	writeMu sync.Mutex // serializes Set and replay to new subscribers

	mu    sync.RWMutex
	value T

	getter    func() T
	setter    func(T) T
	validator func(T) error

	changes *Subject[T]
}

// PropertyOption configures a [Property].
type PropertyOption[T any] func(*Property[T])

// WithGetter makes Get call fn instead of returning the stored value. The
// initial value is taken from fn as well.
func WithGetter[T any](fn func() T) PropertyOption[T] {
	return func(p *Property[T]) {
		p.getter = fn
	}
}

// WithSetter transforms every value accepted by Set before it is stored
// and published.
func WithSetter[T any](fn func(T) T) PropertyOption[T] {
	return func(p *Property[T]) {
		p.setter = fn
	}
}

// WithValidator rejects values for which fn returns an error. Validation
// runs on the value passed to Set, before any setter transform.
func WithValidator[T any](fn func(T) error) PropertyOption[T] {
	return func(p *Property[T]) {
		p.validator = fn
	}
}

// NewProperty returns a Property holding initial.
func NewProperty[T any](initial T, opts ...PropertyOption[T]) *Property[T] {
	p := &Property[T]{
		value:   initial,
		changes: NewSubject[T](),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.getter != nil {
		p.value = p.getter()
	}
	return p
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	if p.getter != nil {
		return p.getter()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set validates v, applies the setter transform and publishes the result.
// A rejected value leaves the property unchanged and returns an error
// wrapping both [ErrInvalidValue] and the validator's error.
func (p *Property[T]) Set(v T) error {
	if p.validator != nil {
		if err := p.validator(v); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
	}
	if p.setter != nil {
		v = p.setter(v)
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	p.value = v
	p.mu.Unlock()

	p.changes.Next(v)
	return nil
}

// Observable returns a sequence that emits the current value, as Get
// reports it, on subscription and then every value accepted by Set. It
// never completes.
func (p *Property[T]) Observable() *Observable[T] {
	return Create(func(o Observer[T]) Subscription {
		p.writeMu.Lock()
		defer p.writeMu.Unlock()

		o.OnNext(p.Get())
		return p.changes.Observable().SubscribeObserver(o)
	})
}
