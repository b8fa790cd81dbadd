// Package clock abstracts time for the reactive operators so that pacing
// can be driven by the system clock in production and advanced by hand in
// tests.
//
//   - [System] schedules callbacks with [time.AfterFunc].
//   - [Manual] is a virtual clock: time only moves when [Manual.Advance] or
//     [Manual.Set] is called, and due callbacks run on the caller's goroutine.
package clock

import "time"

// Clock reports the current time and schedules callbacks.
type Clock interface {
	// Now returns the current time according to the clock.
	Now() time.Time

	// AfterFunc arranges for f to run once d has elapsed on the clock.
	// The returned Timer can cancel the call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the cancellation token returned by [Clock.AfterFunc].
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

type systemClock struct{}

// System returns a Clock backed by the time package.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// OrSystem returns c, or [System] when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System()
	}
	return c
}
