package reactive

import "fmt"

// Pair holds two values matched by [MatchPair]: Left came from the left
// input and Right from the right input.
type Pair[T any] struct {
	Left  T
	Right T
}

func (p Pair[T]) String() string {
	return fmt.Sprintf("(%v, %v)", p.Left, p.Right)
}
