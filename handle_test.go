package reactive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleResolveNotifiesEarlyAndLateObservers(t *testing.T) {
	h := newHandle[int](uuid.New())

	var early []int
	h.Subscribe(func(v int) { early = append(early, v) }, func(error) { t.Fatal("unexpected error") })
	assert.False(t, h.Settled())

	require.True(t, h.resolve(42))

	var late []int
	h.Subscribe(func(v int) { late = append(late, v) }, nil)

	assert.Equal(t, []int{42}, early)
	assert.Equal(t, early, late, "both observers must see the identical value")
	assert.True(t, h.Settled())
}

func TestHandleFailNotifiesEarlyAndLateObservers(t *testing.T) {
	h := newHandle[int](uuid.New())
	boom := errors.New("boom")

	var early, late error
	h.Subscribe(nil, func(err error) { early = err })
	require.True(t, h.fail(boom))
	h.Subscribe(nil, func(err error) { late = err })

	assert.Same(t, boom, early)
	assert.Same(t, boom, late)
}

func TestHandleSettlesOnce(t *testing.T) {
	h := newHandle[int](uuid.New())
	require.True(t, h.resolve(1))
	assert.False(t, h.resolve(2))
	assert.False(t, h.fail(errors.New("late")))

	v, ok, err := h.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestHandleUnsubscribeBeforeSettle(t *testing.T) {
	h := newHandle[int](uuid.New())
	called := false
	sub := h.Subscribe(func(int) { called = true }, nil)
	sub.Unsubscribe()
	h.resolve(1)

	assert.False(t, called)
}

func TestHandleWait(t *testing.T) {
	h := newHandle[string](uuid.New())
	go func() {
		time.Sleep(5 * time.Millisecond)
		h.resolve("done")
	}()

	v, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	select {
	case <-h.Done():
	default:
		t.Fatal("Done should be closed after settling")
	}
}

func TestHandleWaitContext(t *testing.T) {
	h := newHandle[int](uuid.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, ok, _ := h.Result()
	assert.False(t, ok)
}

func TestHandleObservable(t *testing.T) {
	h := newHandle[int](uuid.New())
	h.resolve(9)

	got, err := h.Observable().ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{9}, got)

	f := newHandle[int](uuid.New())
	boom := errors.New("boom")
	f.fail(boom)
	_, err = f.Observable().ToSlice(context.Background())
	assert.ErrorIs(t, err, boom)
}
