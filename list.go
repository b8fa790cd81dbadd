package reactive

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

// ListAction describes the kind of a [ListChange].
type ListAction uint8

const (
	// ListAdd reports items inserted at NewIndex.
	ListAdd ListAction = iota
	// ListRemove reports items removed from OldIndex.
	ListRemove
	// ListReplace reports the item at NewIndex replaced.
	ListReplace
	// ListReset reports a change too large or too structural to describe
	// item by item. Observers should re-read the whole list.
	ListReset
)

func (a ListAction) String() string {
	switch a {
	case ListAdd:
		return "add"
	case ListRemove:
		return "remove"
	case ListReplace:
		return "replace"
	case ListReset:
		return "reset"
	default:
		return fmt.Sprintf("ListAction(%d)", a)
	}
}

// ListChange is one notification published by a [List].
type ListChange[T any] struct {
	Action   ListAction
	NewItems []T
	OldItems []T
	NewIndex int
	OldIndex int

	// Count is the list length right after the change.
	Count int
}

// IndexedItem is an item together with its position in the list.
type IndexedItem[T any] struct {
	Index int
	Item  T
}

// resetThreshold is the share of the list a bulk add or remove may touch
// before it is reported as a single reset.
const resetThreshold = 0.3

// List is an ordered list that publishes a [ListChange] for every
// mutation. Bulk operations that touch more than 30% of the list publish
// one reset instead of per-item changes.
//
// List is safe for concurrent use. Mutations are serialized and their
// changes are published in order while the write lock is held; observers
// may read the list but must not mutate it synchronously.
//
// Index arguments out of range panic, like slice indexing.
type List[T any] struct {
	writeMu sync.Mutex

	mu    sync.RWMutex
	items []T

	changes *Subject[ListChange[T]]
}

// NewList returns a List holding a copy of items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{
		items:   slices.Clone(items),
		changes: NewSubject[ListChange[T]](),
	}
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get returns the item at i.
func (l *List[T]) Get(i int) T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.items[i]
}

// Items returns a copy of the list's contents.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// IndexFunc returns the index of the first item satisfying match, or -1.
func (l *List[T]) IndexFunc(match func(T) bool) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.IndexFunc(l.items, match)
}

// mutate applies fn to the items under the write lock and publishes the
// changes it returns.
func (l *List[T]) mutate(fn func(items []T) ([]T, []ListChange[T])) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	for _, c := range l.apply(fn) {
		l.changes.Next(c)
	}
}

func (l *List[T]) apply(fn func(items []T) ([]T, []ListChange[T])) []ListChange[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, changes := fn(l.items)
	l.items = items
	return changes
}

// Add appends item.
func (l *List[T]) Add(item T) {
	l.mutate(func(items []T) ([]T, []ListChange[T]) {
		items = append(items, item)
		return items, []ListChange[T]{added(len(items)-1, []T{item}, len(items))}
	})
}

// AddRange appends items. Adding more than 30% of the current length
// publishes one reset; otherwise one add per item.
func (l *List[T]) AddRange(items ...T) {
	if len(items) == 0 {
		return
	}
	items = slices.Clone(items)

	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		before := len(cur)
		cur = append(cur, items...)
		if shouldReset(len(items), before) {
			return cur, []ListChange[T]{reset[T](len(cur))}
		}

		changes := make([]ListChange[T], len(items))
		for i, it := range items {
			changes[i] = added(before+i, []T{it}, before+i+1)
		}
		return cur, changes
	})
}

// Insert places item at index i, shifting later items up. i may equal Len.
func (l *List[T]) Insert(i int, item T) {
	l.InsertRange(i, item)
}

// InsertRange places items at index i as one add change.
func (l *List[T]) InsertRange(i int, items ...T) {
	items = slices.Clone(items)

	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		if i < 0 || i > len(cur) {
			panic(fmt.Sprintf("reactive: List index %d out of range [0:%d]", i, len(cur)))
		}
		if len(items) == 0 {
			return cur, nil
		}
		cur = slices.Insert(cur, i, items...)
		return cur, []ListChange[T]{added(i, items, len(cur))}
	})
}

// Set replaces the item at index i.
func (l *List[T]) Set(i int, item T) {
	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		old := cur[i]
		cur[i] = item
		return cur, []ListChange[T]{{
			Action:   ListReplace,
			NewItems: []T{item},
			OldItems: []T{old},
			NewIndex: i,
			OldIndex: i,
			Count:    len(cur),
		}}
	})
}

// RemoveAt removes the item at index i.
func (l *List[T]) RemoveAt(i int) {
	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		old := cur[i]
		cur = slices.Delete(cur, i, i+1)
		return cur, []ListChange[T]{removed(i, old, len(cur))}
	})
}

// RemoveFunc removes the first item satisfying match and reports whether
// one was found.
func (l *List[T]) RemoveFunc(match func(T) bool) bool {
	var found bool
	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		i := slices.IndexFunc(cur, match)
		if i < 0 {
			return cur, nil
		}
		found = true
		old := cur[i]
		cur = slices.Delete(cur, i, i+1)
		return cur, []ListChange[T]{removed(i, old, len(cur))}
	})
	return found
}

// RemoveAll removes every item satisfying match and returns how many were
// removed. Removing more than 30% of the list publishes one reset;
// otherwise one remove per item, each index taken at the moment of its
// removal so the changes can be replayed in order.
func (l *List[T]) RemoveAll(match func(T) bool) int {
	var n int
	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		before := len(cur)
		var gone []IndexedItem[T]
		kept := cur[:0]
		for _, it := range cur {
			if match(it) {
				gone = append(gone, IndexedItem[T]{Index: len(kept), Item: it})
				continue
			}
			kept = append(kept, it)
		}
		clear(cur[len(kept):])
		n = len(gone)

		switch {
		case n == 0:
			return kept, nil
		case shouldReset(n, before):
			return kept, []ListChange[T]{reset[T](len(kept))}
		}

		changes := make([]ListChange[T], n)
		for i, g := range gone {
			changes[i] = removed(g.Index, g.Item, before-i-1)
		}
		return kept, changes
	})
	return n
}

// Clear removes every item and publishes a reset. Clearing an empty list
// publishes nothing.
func (l *List[T]) Clear() {
	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		if len(cur) == 0 {
			return cur, nil
		}
		return nil, []ListChange[T]{reset[T](0)}
	})
}

// Reverse reverses the list in place and publishes a reset.
func (l *List[T]) Reverse() {
	l.reorder(func(items []T) { slices.Reverse(items) })
}

// Sort orders the list by cmp and publishes a reset. The sort is stable.
func (l *List[T]) Sort(cmp func(a, b T) int) {
	l.reorder(func(items []T) { slices.SortStableFunc(items, cmp) })
}

// Shuffle randomizes the order of the list and publishes a reset.
func (l *List[T]) Shuffle() {
	l.reorder(func(items []T) {
		rand.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	})
}

func (l *List[T]) reorder(fn func([]T)) {
	l.mutate(func(cur []T) ([]T, []ListChange[T]) {
		fn(cur)
		return cur, []ListChange[T]{reset[T](len(cur))}
	})
}

// Changed emits every change. It never completes.
func (l *List[T]) Changed() *Observable[ListChange[T]] {
	return l.changes.Observable()
}

// CountChanged emits the new length whenever an add, remove or reset
// changes it.
func (l *List[T]) CountChanged() *Observable[int] {
	return DistinctUntilChanged(Create(func(o Observer[int]) Subscription {
		return l.Changed().Subscribe(func(c ListChange[T]) {
			if c.Action != ListReplace {
				o.OnNext(c.Count)
			}
		}, o.OnError, o.OnCompleted)
	}))
}

// ItemAdded emits every added item with its index. Items covered by a
// reset are not reported.
func (l *List[T]) ItemAdded() *Observable[IndexedItem[T]] {
	return l.itemsOf(ListAdd, func(c ListChange[T]) (int, []T) { return c.NewIndex, c.NewItems })
}

// ItemRemoved emits every removed item with the index it had. Items
// covered by a reset are not reported.
func (l *List[T]) ItemRemoved() *Observable[IndexedItem[T]] {
	return l.itemsOf(ListRemove, func(c ListChange[T]) (int, []T) { return c.OldIndex, c.OldItems })
}

// Reset emits once for every reset change.
func (l *List[T]) Reset() *Observable[struct{}] {
	return Create(func(o Observer[struct{}]) Subscription {
		return l.Changed().Subscribe(func(c ListChange[T]) {
			if c.Action == ListReset {
				o.OnNext(struct{}{})
			}
		}, o.OnError, o.OnCompleted)
	})
}

func (l *List[T]) itemsOf(action ListAction, pick func(ListChange[T]) (int, []T)) *Observable[IndexedItem[T]] {
	return Create(func(o Observer[IndexedItem[T]]) Subscription {
		return l.Changed().Subscribe(func(c ListChange[T]) {
			if c.Action != action {
				return
			}
			start, items := pick(c)
			for i, it := range items {
				o.OnNext(IndexedItem[T]{Index: start + i, Item: it})
			}
		}, o.OnError, o.OnCompleted)
	})
}

func added[T any](i int, items []T, count int) ListChange[T] {
	return ListChange[T]{
		Action:   ListAdd,
		NewItems: items,
		NewIndex: i,
		OldIndex: -1,
		Count:    count,
	}
}

func removed[T any](i int, item T, count int) ListChange[T] {
	return ListChange[T]{
		Action:   ListRemove,
		OldItems: []T{item},
		NewIndex: -1,
		OldIndex: i,
		Count:    count,
	}
}

func reset[T any](count int) ListChange[T] {
	return ListChange[T]{
		Action:   ListReset,
		NewIndex: -1,
		OldIndex: -1,
		Count:    count,
	}
}

// shouldReset reports whether changing n items of a list that held
// before items is large enough to publish a reset. An empty list always
// resets.
func shouldReset(n, before int) bool {
	return float64(n)/float64(before) > resetThreshold
}
