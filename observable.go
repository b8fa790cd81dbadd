package reactive

import (
	"context"
	"sync"
	"sync/atomic"
)

// Observer receives the signals of an [Observable]. Nil callbacks are
// skipped.
type Observer[T any] struct {
	OnNext      func(T)
	OnError     func(error)
	OnCompleted func()
}

// Observable is a push-based sequence. A producer emits any number of
// values followed by at most one terminal signal: an error or completion.
//
// Observables built with [Create] are cold: every subscription runs the
// producer again. Use [Subject] for a hot, multicast source.
type Observable[T any] struct {
	subscribe func(Observer[T]) Subscription
}

// Create builds an Observable from a producer function. The producer is
// called once per subscription with an observer that enforces the stream
// contract: values are dropped after a terminal signal or after the
// subscription is released, and only the first terminal signal is
// delivered. The producer returns the Subscription used to release its
// resources; it may return nil when there is nothing to release.
//
// Create panics if subscribe is nil.
func Create[T any](subscribe func(o Observer[T]) Subscription) *Observable[T] {
	if subscribe == nil {
		panic("reactive: Create requires non-nil subscribe function")
	}
	return &Observable[T]{subscribe: subscribe}
}

// Subscribe attaches callbacks to the sequence. Any callback may be nil.
func (s *Observable[T]) Subscribe(onNext func(T), onError func(error), onCompleted func()) Subscription {
	return s.SubscribeObserver(Observer[T]{
		OnNext:      onNext,
		OnError:     onError,
		OnCompleted: onCompleted,
	})
}

// SubscribeObserver attaches o to the sequence.
func (s *Observable[T]) SubscribeObserver(o Observer[T]) Subscription {
	sink := &safeObserver[T]{o: o}
	inner := s.subscribe(sink.observer())

	return NewSubscription(func() {
		sink.stop()
		if inner != nil {
			inner.Unsubscribe()
		}
	})
}

// safeObserver guards an Observer against signals after termination.
type safeObserver[T any] struct {
	o    Observer[T]
	done atomic.Bool
}

func (s *safeObserver[T]) observer() Observer[T] {
	return Observer[T]{
		OnNext:      s.next,
		OnError:     s.fail,
		OnCompleted: s.complete,
	}
}

func (s *safeObserver[T]) next(v T) {
	if s.done.Load() || s.o.OnNext == nil {
		return
	}
	s.o.OnNext(v)
}

func (s *safeObserver[T]) fail(err error) {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	if s.o.OnError != nil {
		s.o.OnError(err)
	}
}

func (s *safeObserver[T]) complete() {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	if s.o.OnCompleted != nil {
		s.o.OnCompleted()
	}
}

func (s *safeObserver[T]) stop() {
	s.done.Store(true)
}

// Just emits the given values in order, then completes.
func Just[T any](values ...T) *Observable[T] {
	return FromSlice(values)
}

// FromSlice emits the items of a slice in order, then completes.
// Emission is synchronous within Subscribe.
func FromSlice[T any](items []T) *Observable[T] {
	return Create(func(o Observer[T]) Subscription {
		for _, v := range items {
			o.OnNext(v)
		}
		o.OnCompleted()
		return nil
	})
}

// Empty completes immediately without emitting.
func Empty[T any]() *Observable[T] {
	return Create(func(o Observer[T]) Subscription {
		o.OnCompleted()
		return nil
	})
}

// Never emits nothing and never terminates.
func Never[T any]() *Observable[T] {
	return Create(func(Observer[T]) Subscription { return nil })
}

// Fail terminates immediately with err.
func Fail[T any](err error) *Observable[T] {
	return Create(func(o Observer[T]) Subscription {
		o.OnError(err)
		return nil
	})
}

// Start runs fn in its own goroutine for every subscription and emits its
// single result, or its error. The context passed to fn is derived from
// ctx and is cancelled when the subscription is released.
//
// Start panics if fn is nil.
func Start[T any](ctx context.Context, fn func(context.Context) (T, error)) *Observable[T] {
	if fn == nil {
		panic("reactive: Start requires non-nil function")
	}
	return Create(func(o Observer[T]) Subscription {
		runCtx, cancel := context.WithCancel(ctx)
		go func() {
			defer cancel()
			v, err := fn(runCtx)
			if err != nil {
				o.OnError(err)
				return
			}
			o.OnNext(v)
			o.OnCompleted()
		}()
		return NewSubscription(cancel)
	})
}

// FromChan emits every value received from ch and completes when ch is
// closed. A goroutine reads the channel for each subscription until the
// channel is closed or the subscription is released.
//
// If ch is nil the sequence completes immediately.
func FromChan[T any](ch <-chan T) *Observable[T] {
	return Create(func(o Observer[T]) Subscription {
		if ch == nil {
			o.OnCompleted()
			return nil
		}

		stop := make(chan struct{})
		go func() {
			for {
				select {
				case v, ok := <-ch:
					if !ok {
						o.OnCompleted()
						return
					}
					o.OnNext(v)
				case <-stop:
					return
				}
			}
		}()
		return NewSubscription(func() { close(stop) })
	})
}

// ToSlice subscribes to s and blocks until it completes, returning every
// value received. On error it returns the values received so far alongside
// the error. If ctx is cancelled first, the subscription is released and
// ctx.Err() is returned.
func (s *Observable[T]) ToSlice(ctx context.Context) ([]T, error) {
	var (
		mu    sync.Mutex
		items []T
		err   error
	)
	done := make(chan struct{})

	sub := s.Subscribe(
		func(v T) {
			mu.Lock()
			items = append(items, v)
			mu.Unlock()
		},
		func(e error) {
			mu.Lock()
			err = e
			mu.Unlock()
			close(done)
		},
		func() { close(done) },
	)

	select {
	case <-done:
	case <-ctx.Done():
		sub.Unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		return items, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return items, err
}

// First blocks until s emits its first value and returns it. It returns
// [ErrNoResult] if s completes without a value.
func (s *Observable[T]) First(ctx context.Context) (T, error) {
	type first struct {
		val T
		err error
	}
	ch := make(chan first, 1)
	var once sync.Once
	publish := func(f first) {
		once.Do(func() { ch <- f })
	}

	sub := s.Subscribe(
		func(v T) { publish(first{val: v}) },
		func(err error) { publish(first{err: err}) },
		func() { publish(first{err: ErrNoResult}) },
	)
	defer sub.Unsubscribe()

	select {
	case f := <-ch:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// ToChan bridges s to channels. Values arrive on the first channel, which
// is closed when s terminates or ctx is done; the second channel receives
// the terminal error, if any, and is then closed. Cancelling ctx releases
// the subscription and reports ctx.Err().
//
// A goroutine owns the subscription. Delivery blocks the producer until
// the value is received, so a slow reader applies backpressure to
// synchronous producers.
func (s *Observable[T]) ToChan(ctx context.Context) (<-chan T, <-chan error) {
	out := make(chan T)
	errCh := make(chan error, 1)
	term := make(chan error, 1)
	quit := make(chan struct{})

	var (
		mu     sync.RWMutex
		closed bool
	)

	go func() {
		defer close(errCh)

		sub := s.Subscribe(
			func(v T) {
				mu.RLock()
				defer mu.RUnlock()
				if closed {
					return
				}
				select {
				case out <- v:
				case <-quit:
				case <-ctx.Done():
				}
			},
			func(err error) { term <- err },
			func() { term <- nil },
		)

		var err error
		select {
		case err = <-term:
		case <-ctx.Done():
			err = ctx.Err()
		}
		close(quit)
		sub.Unsubscribe()

		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()

		if err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}
