package reactive

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyGetSet(t *testing.T) {
	p := NewProperty(1)
	assert.Equal(t, 1, p.Get())

	require.NoError(t, p.Set(2))
	assert.Equal(t, 2, p.Get())
}

func TestPropertyReplaysCurrentValue(t *testing.T) {
	p := NewProperty("a")
	require.NoError(t, p.Set("b"))

	var got []string
	sub := p.Observable().Subscribe(func(v string) { got = append(got, v) }, nil, nil)
	require.NoError(t, p.Set("c"))
	sub.Unsubscribe()
	require.NoError(t, p.Set("d"))

	assert.Equal(t, []string{"b", "c"}, got)
}

func TestPropertyValidator(t *testing.T) {
	errNegative := errors.New("must not be negative")
	p := NewProperty(0, WithValidator(func(v int) error {
		if v < 0 {
			return errNegative
		}
		return nil
	}))

	var got []int
	p.Observable().Subscribe(func(v int) { got = append(got, v) }, nil, nil)

	err := p.Set(-1)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorIs(t, err, errNegative)
	assert.Equal(t, 0, p.Get())

	require.NoError(t, p.Set(5))
	assert.Equal(t, []int{0, 5}, got)
}

func TestPropertySetter(t *testing.T) {
	p := NewProperty("", WithSetter(strings.ToUpper), WithValidator(func(s string) error {
		if s != strings.ToLower(s) {
			return errors.New("lower case only")
		}
		return nil
	}))

	require.NoError(t, p.Set("hello"))
	assert.Equal(t, "HELLO", p.Get(), "setter transforms after validation")
	assert.ErrorIs(t, p.Set("Hello"), ErrInvalidValue)
}

func TestPropertyGetter(t *testing.T) {
	backing := 10
	p := NewProperty(0, WithGetter(func() int { return backing }))

	assert.Equal(t, 10, p.Get())
	backing = 11
	assert.Equal(t, 11, p.Get())

	var first int
	p.Observable().Subscribe(func(v int) { first = v }, nil, nil)
	assert.Equal(t, 11, first, "subscribers see what Get reports")
}
