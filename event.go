package reactive

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies an operation lifecycle change reported through
// [WithOnEvent].
type EventKind uint8

const (
	// EventSubmitted fires when an operation enters the queue.
	EventSubmitted EventKind = iota
	// EventAdmitted fires when the queue lets an operation start.
	EventAdmitted
	// EventResolved fires when an operation's handle settles with a value.
	EventResolved
	// EventFailed fires when an operation's handle settles with an error.
	EventFailed
	// EventDropped fires when the queue closes before admitting an operation.
	EventDropped
)

func (k EventKind) String() string {
	switch k {
	case EventSubmitted:
		return "submitted"
	case EventAdmitted:
		return "admitted"
	case EventResolved:
		return "resolved"
	case EventFailed:
		return "failed"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle change of a queued operation.
type Event struct {
	Kind EventKind
	ID   uuid.UUID
	At   time.Time // on the queue's clock
	Err  error     // set for EventFailed and EventDropped
}

// QueueStats is a point-in-time snapshot of queue activity.
type QueueStats struct {
	Submitted int64 // operations passed to Enqueue, rejected ones included
	Admitted  int64 // operations whose work has started
	Resolved  int64 // handles settled with a value
	Failed    int64 // handles settled with an error, dropped ones included
	Pending   int   // operations waiting for admission
}
