package reactive

import "sync"

// Subject is a hot, multicast source: values passed to Next are delivered
// to every observer subscribed at that moment. Observers that subscribe
// after the subject terminated receive the terminal signal immediately.
//
// Next, Error and Complete deliver synchronously on the caller's goroutine
// and without holding the subject's lock, so observers may subscribe or
// unsubscribe from within a notification. Concurrent callers of Next are
// not serialized against each other; callers that need a total order must
// provide it.
type Subject[T any] struct {
	mu        sync.Mutex
	observers []subjectObserver[T] // copy-on-write
	nextID    uint64
	done      bool
	err       error
}

type subjectObserver[T any] struct {
	id uint64
	o  Observer[T]
}

// NewSubject returns a Subject with no observers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Next delivers v to the current observers. It is a no-op after Error
// or Complete.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	obs := s.observers
	s.mu.Unlock()

	for _, so := range obs {
		so.o.OnNext(v)
	}
}

// Error terminates the subject with err.
func (s *Subject[T]) Error(err error) {
	obs, ok := s.terminate(err)
	if !ok {
		return
	}
	for _, so := range obs {
		so.o.OnError(err)
	}
}

// Complete terminates the subject normally.
func (s *Subject[T]) Complete() {
	obs, ok := s.terminate(nil)
	if !ok {
		return
	}
	for _, so := range obs {
		so.o.OnCompleted()
	}
}

func (s *Subject[T]) terminate(err error) ([]subjectObserver[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil, false
	}
	s.done = true
	s.err = err
	obs := s.observers
	s.observers = nil
	return obs, true
}

// HasObservers reports whether any observer is currently subscribed.
func (s *Subject[T]) HasObservers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers) > 0
}

// Observable exposes the subject as a read-only [Observable].
func (s *Subject[T]) Observable() *Observable[T] {
	return Create(s.subscribe)
}

func (s *Subject[T]) subscribe(o Observer[T]) Subscription {
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			o.OnError(err)
		} else {
			o.OnCompleted()
		}
		return nil
	}

	id := s.nextID
	s.nextID++
	obs := make([]subjectObserver[T], len(s.observers), len(s.observers)+1)
	copy(obs, s.observers)
	s.observers = append(obs, subjectObserver[T]{id: id, o: o})
	s.mu.Unlock()

	return NewSubscription(func() { s.remove(id) })
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, so := range s.observers {
		if so.id != id {
			continue
		}
		obs := make([]subjectObserver[T], 0, len(s.observers)-1)
		obs = append(obs, s.observers[:i]...)
		obs = append(obs, s.observers[i+1:]...)
		s.observers = obs
		return
	}
}
