package reactive

import "sync"

// SampleAndCombineLatest emits fn(latestLeft, r) for every item r of right,
// using the most recent item of left. Right items that arrive before left
// has produced anything are skipped.
//
// The output completes when right completes; completion of left only
// freezes the latest value. An error from either input is forwarded and
// both inputs are unsubscribed.
//
// SampleAndCombineLatest panics if left, right or fn is nil.
func SampleAndCombineLatest[L, R, V any](left *Observable[L], right *Observable[R], fn func(L, R) V) *Observable[V] {
	if left == nil {
		panic("reactive: SampleAndCombineLatest requires non-nil left source")
	}
	if right == nil {
		panic("reactive: SampleAndCombineLatest requires non-nil right source")
	}
	if fn == nil {
		panic("reactive: SampleAndCombineLatest requires non-nil result selector")
	}

	return Create(func(o Observer[V]) Subscription {
		var (
			mu     sync.Mutex
			latest L
			has    bool
			subs   Composite
		)
		fail := func(err error) {
			o.OnError(err)
			subs.Unsubscribe()
		}

		subs.Add(left.Subscribe(
			func(v L) {
				mu.Lock()
				latest, has = v, true
				mu.Unlock()
			},
			fail,
			nil,
		))
		subs.Add(right.Subscribe(
			func(r R) {
				mu.Lock()
				l, ok := latest, has
				mu.Unlock()
				if ok {
					o.OnNext(fn(l, r))
				}
			},
			fail,
			func() {
				o.OnCompleted()
				subs.Unsubscribe()
			},
		))

		return &subs
	})
}

// Map applies fn to every item of src.
//
// Map panics if src or fn is nil.
func Map[T, R any](src *Observable[T], fn func(T) R) *Observable[R] {
	if src == nil {
		panic("reactive: Map requires non-nil source")
	}
	if fn == nil {
		panic("reactive: Map requires non-nil function")
	}
	return Create(func(o Observer[R]) Subscription {
		return src.Subscribe(
			func(v T) { o.OnNext(fn(v)) },
			o.OnError,
			o.OnCompleted,
		)
	})
}

// ToUnit discards the values of src and keeps only the fact that they
// happened.
func ToUnit[T any](src *Observable[T]) *Observable[struct{}] {
	return Map(src, func(T) struct{} { return struct{}{} })
}

// DistinctUntilChanged drops items equal to the item forwarded just before
// them.
func DistinctUntilChanged[T comparable](src *Observable[T]) *Observable[T] {
	if src == nil {
		panic("reactive: DistinctUntilChanged requires non-nil source")
	}
	return Create(func(o Observer[T]) Subscription {
		var (
			mu   sync.Mutex
			last T
			has  bool
		)
		return src.Subscribe(
			func(v T) {
				mu.Lock()
				if has && last == v {
					mu.Unlock()
					return
				}
				last, has = v, true
				mu.Unlock()
				o.OnNext(v)
			},
			o.OnError,
			o.OnCompleted,
		)
	})
}
