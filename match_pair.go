package reactive

import "sync"

// MatchPair pairs items from left with items from right that share a key.
//
// Each incoming item is looked up in the other side's cache of unmatched
// items. On a hit the cached item is removed and the pair is emitted at
// once; on a miss the item is cached on its own side. When several cached
// items share the key, the one that arrived first is matched.
//
// The output completes only after both inputs have completed; unmatched
// leftovers are discarded. An error from either input is forwarded
// immediately and both inputs are unsubscribed.
//
// Lookup, removal and insertion for one item happen under a single lock
// shared by both sides, and pairs are emitted while holding it, so the
// output is serialized. Observers must not feed items back into left or
// right synchronously.
//
// MatchPair panics if left, right or keyOf is nil.
func MatchPair[T any, K comparable](left, right *Observable[T], keyOf func(T) K) *Observable[Pair[T]] {
	if left == nil {
		panic("reactive: MatchPair requires non-nil left source")
	}
	if right == nil {
		panic("reactive: MatchPair requires non-nil right source")
	}
	if keyOf == nil {
		panic("reactive: MatchPair requires non-nil key selector")
	}

	return Create(func(o Observer[Pair[T]]) Subscription {
		m := &matcher[T, K]{
			out:   o,
			keyOf: keyOf,
			left:  newPendingCache[T, K](),
			right: newPendingCache[T, K](),
		}

		m.subs.Add(left.Subscribe(
			func(v T) { m.next(v, m.right, m.left, false) },
			m.fail,
			func() { m.complete(&m.leftDone) },
		))
		if !m.finished() {
			m.subs.Add(right.Subscribe(
				func(v T) { m.next(v, m.left, m.right, true) },
				m.fail,
				func() { m.complete(&m.rightDone) },
			))
		}

		return &m.subs
	})
}

type matcher[T any, K comparable] struct {
	out   Observer[Pair[T]]
	keyOf func(T) K
	subs  Composite

	mu        sync.Mutex
	left      *pendingCache[T, K]
	right     *pendingCache[T, K]
	leftDone  bool
	rightDone bool
	done      bool
}

// next matches v against other, or caches it in own. fromRight tells
// which side of the pair v belongs on.
func (m *matcher[T, K]) next(v T, other, own *pendingCache[T, K], fromRight bool) {
	k := m.keyOf(v)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return
	}

	matched, ok := other.take(k)
	if !ok {
		own.put(k, v)
		return
	}

	if fromRight {
		m.out.OnNext(Pair[T]{Left: matched, Right: v})
	} else {
		m.out.OnNext(Pair[T]{Left: v, Right: matched})
	}
}

func (m *matcher[T, K]) complete(side *bool) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	*side = true
	if !m.leftDone || !m.rightDone {
		m.mu.Unlock()
		return
	}
	m.finishLocked()
	m.out.OnCompleted()
	m.mu.Unlock()
}

func (m *matcher[T, K]) fail(err error) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.finishLocked()
	m.out.OnError(err)
	m.mu.Unlock()

	m.subs.Unsubscribe()
}

func (m *matcher[T, K]) finishLocked() {
	m.done = true
	m.left.reset()
	m.right.reset()
}

func (m *matcher[T, K]) finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// pendingCache holds unmatched items per key in arrival order.
type pendingCache[T any, K comparable] struct {
	byKey map[K][]T
}

func newPendingCache[T any, K comparable]() *pendingCache[T, K] {
	return &pendingCache[T, K]{byKey: make(map[K][]T)}
}

func (c *pendingCache[T, K]) put(k K, v T) {
	c.byKey[k] = append(c.byKey[k], v)
}

// take removes and returns the oldest item cached under k.
func (c *pendingCache[T, K]) take(k K) (T, bool) {
	items := c.byKey[k]
	if len(items) == 0 {
		var zero T
		return zero, false
	}

	v := items[0]
	if len(items) == 1 {
		delete(c.byKey, k)
	} else {
		var zero T
		items[0] = zero
		c.byKey[k] = items[1:]
	}
	return v, true
}

func (c *pendingCache[T, K]) reset() {
	clear(c.byKey)
}
