package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectMulticast(t *testing.T) {
	s := NewSubject[int]()
	var a, b []int
	s.Observable().Subscribe(func(v int) { a = append(a, v) }, nil, nil)
	s.Observable().Subscribe(func(v int) { b = append(b, v) }, nil, nil)

	s.Next(1)
	s.Next(2)

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, []int{1, 2}, b)
}

func TestSubjectIsHot(t *testing.T) {
	s := NewSubject[int]()
	s.Next(1)

	var got []int
	s.Observable().Subscribe(func(v int) { got = append(got, v) }, nil, nil)
	s.Next(2)

	assert.Equal(t, []int{2}, got, "values before subscription are not replayed")
}

func TestSubjectUnsubscribe(t *testing.T) {
	s := NewSubject[int]()
	var got []int
	sub := s.Observable().Subscribe(func(v int) { got = append(got, v) }, nil, nil)
	assert.True(t, s.HasObservers())

	s.Next(1)
	sub.Unsubscribe()
	s.Next(2)

	assert.Equal(t, []int{1}, got)
	assert.False(t, s.HasObservers())
}

func TestSubjectUnsubscribeDuringNext(t *testing.T) {
	s := NewSubject[int]()
	var got []int
	var sub Subscription
	sub = s.Observable().Subscribe(func(v int) {
		got = append(got, v)
		sub.Unsubscribe()
	}, nil, nil)

	s.Next(1)
	s.Next(2)

	assert.Equal(t, []int{1}, got)
}

func TestSubjectTerminalReplayedToLateSubscribers(t *testing.T) {
	boom := errors.New("boom")

	failed := NewSubject[int]()
	failed.Error(boom)
	failed.Next(1)

	var gotErr error
	failed.Observable().Subscribe(func(int) { t.Fatal("no values after error") }, func(err error) { gotErr = err }, nil)
	assert.ErrorIs(t, gotErr, boom)

	completed := NewSubject[int]()
	completed.Complete()
	completed.Error(boom)

	var done bool
	completed.Observable().Subscribe(nil, func(error) { t.Fatal("completed subject must not fail") }, func() { done = true })
	assert.True(t, done)
}
