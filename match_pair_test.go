package reactive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(v int) int { return v }

func TestMatchPairMatchesEveryKey(t *testing.T) {
	left := Just(0, 2, 4, 1, 3, 5)
	right := Just(0, 3, 5, 4, 2, 1)

	got, err := MatchPair(left, right, identity).ToSlice(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []Pair[int]{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5},
	}, got)
}

func TestMatchPairDisjointKeys(t *testing.T) {
	got, err := MatchPair(Just(1, 1), Just(2, 2), identity).ToSlice(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatchPairCompletesOnlyAfterBothSides(t *testing.T) {
	left := NewSubject[int]()
	right := NewSubject[int]()

	var completed bool
	MatchPair(left.Observable(), right.Observable(), identity).Subscribe(nil, nil, func() { completed = true })

	left.Complete()
	assert.False(t, completed)

	right.Next(1)
	assert.False(t, completed)

	right.Complete()
	assert.True(t, completed)
}

func TestMatchPairRightFirst(t *testing.T) {
	left := NewSubject[string]()
	right := NewSubject[string]()

	var got []Pair[string]
	MatchPair(left.Observable(), right.Observable(), func(s string) byte { return s[0] }).
		Subscribe(func(p Pair[string]) { got = append(got, p) }, nil, nil)

	right.Next("a-right")
	left.Next("a-left")

	assert.Equal(t, []Pair[string]{{Left: "a-left", Right: "a-right"}}, got)
}

func TestMatchPairEarliestCachedItemWins(t *testing.T) {
	left := NewSubject[string]()
	right := NewSubject[string]()

	var got []Pair[string]
	MatchPair(left.Observable(), right.Observable(), func(s string) byte { return s[0] }).
		Subscribe(func(p Pair[string]) { got = append(got, p) }, nil, nil)

	left.Next("k1")
	left.Next("k2")
	left.Next("k3")
	right.Next("kA")
	right.Next("kB")

	assert.Equal(t, []Pair[string]{
		{Left: "k1", Right: "kA"},
		{Left: "k2", Right: "kB"},
	}, got)
}

func TestMatchPairErrorPropagates(t *testing.T) {
	left := NewSubject[int]()
	right := NewSubject[int]()
	boom := errors.New("boom")

	var (
		gotErr    error
		completed bool
	)
	MatchPair(left.Observable(), right.Observable(), identity).Subscribe(nil,
		func(err error) { gotErr = err },
		func() { completed = true },
	)

	left.Next(1)
	right.Error(boom)

	assert.ErrorIs(t, gotErr, boom)
	assert.False(t, left.HasObservers(), "error must unsubscribe the other side")
	assert.False(t, right.HasObservers())

	left.Complete()
	assert.False(t, completed)
}

func TestMatchPairSynchronousErrorSkipsRight(t *testing.T) {
	boom := errors.New("boom")
	right := NewSubject[int]()

	_, err := MatchPair(Fail[int](boom), right.Observable(), identity).ToSlice(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, right.HasObservers())
}

func TestMatchPairUnsubscribe(t *testing.T) {
	left := NewSubject[int]()
	right := NewSubject[int]()

	sub := MatchPair(left.Observable(), right.Observable(), identity).Subscribe(nil, nil, nil)
	require.True(t, left.HasObservers())
	require.True(t, right.HasObservers())

	sub.Unsubscribe()
	assert.False(t, left.HasObservers())
	assert.False(t, right.HasObservers())
}

func TestMatchPairConcurrentSides(t *testing.T) {
	const n = 1000
	left := make(chan int)
	right := make(chan int)

	go func() {
		for i := range n {
			left <- i
		}
		close(left)
	}()
	go func() {
		for i := n - 1; i >= 0; i-- {
			right <- i
		}
		close(right)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := MatchPair(FromChan(left), FromChan(right), identity).ToSlice(ctx)
	require.NoError(t, err)
	require.Len(t, got, n)
	for _, p := range got {
		assert.Equal(t, p.Left, p.Right)
	}
}

func TestMatchPairPanics(t *testing.T) {
	assert.PanicsWithValue(t, "reactive: MatchPair requires non-nil left source", func() {
		MatchPair(nil, Never[int](), identity)
	})
	assert.PanicsWithValue(t, "reactive: MatchPair requires non-nil right source", func() {
		MatchPair(Never[int](), nil, identity)
	})
	assert.PanicsWithValue(t, "reactive: MatchPair requires non-nil key selector", func() {
		MatchPair[int, int](Never[int](), Never[int](), nil)
	})
}

func TestPendingCache(t *testing.T) {
	c := newPendingCache[string, int]()
	c.put(1, "a")
	c.put(1, "b")
	c.put(2, "c")
	assert.Equal(t, []string{"a", "b"}, c.byKey[1])

	v, ok := c.take(1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = c.take(3)
	assert.False(t, ok)

	assert.Equal(t, []string{"b"}, c.byKey[1])

	c.reset()
	assert.Empty(t, c.byKey)
	_, ok = c.take(2)
	assert.False(t, ok)
}

func TestPairString(t *testing.T) {
	assert.Equal(t, "(1, 2)", Pair[int]{Left: 1, Right: 2}.String())
}
