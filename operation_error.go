package reactive

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrQueueClosed resolves operations that were still waiting for
	// admission when their [Queue] was closed, and every operation
	// submitted afterwards.
	ErrQueueClosed = errors.New("reactive: queue is closed")

	// ErrNoResult is returned when a sequence that should produce a value
	// completes without emitting one.
	ErrNoResult = errors.New("reactive: sequence completed without a value")
)

// OperationError wraps the failure of a queued operation together with the
// ID of the operation that produced it. Every error delivered through a
// [Handle] returned by the queue is an *OperationError.
type OperationError struct {
	ID  uuid.UUID
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %v", e.ID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsOperationError reports whether err (or any error in its chain) is an
// [*OperationError].
func IsOperationError(err error) bool {
	if err == nil {
		return false
	}
	var oe *OperationError
	return errors.As(err, &oe)
}

// OperationOf extracts the operation ID from the first [*OperationError]
// in err's chain. Returns false if none is found.
func OperationOf(err error) (uuid.UUID, bool) {
	if err == nil {
		return uuid.Nil, false
	}

	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.ID, true
	}
	return uuid.Nil, false
}

// CauseOf unwraps the first [*OperationError] in err's chain and returns
// its underlying cause. If err is not an OperationError, it is returned
// as-is. Returns nil if err is nil.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Err
	}

	return err
}
