// Package reactive provides push-based streams with rate pacing, a
// rate-limited operation queue, and a keyed pairwise matcher.
//
// # Streams
//
// An [Observable] delivers values to an [Observer] followed by at most one
// terminal signal, an error or completion. Build one with [Create],
// [Just], [FromSlice], [FromChan], [Start], [Empty], [Never] or [Fail].
// A [Subject] is a hot source that multicasts to its current observers.
//
// Subscribing returns a [Subscription]; releasing it stops delivery and
// releases the producer. Use [Composite] to release several together.
//
// Terminal helpers bridge back to blocking code: [Observable.ToSlice],
// [Observable.First] and [Observable.ToChan].
//
// # Rate Limiting
//
// [LimitRate] spaces the items of a stream at least one interval apart
// without dropping any. The first item passes immediately, a burst is
// buffered and released one per interval, and an item arriving after a
// quiet period passes at once:
//
//	paced := reactive.LimitRate(events, 100*time.Millisecond, nil)
//
// Time comes from a [clock.Clock]. Pass [clock.NewManual] in tests to move
// time by hand.
//
// # Operation Queue
//
// A [Queue] admits deferred operations one at a time, in submission order,
// at most one per rate. Submitting never blocks; it returns a [Handle]
// that settles with the operation's outcome:
//
//	q := reactive.NewQueue(ctx, time.Second)
//	defer q.Close()
//
//	h := reactive.EnqueueFunc(q, func(ctx context.Context) (*User, error) {
//	    return api.FetchUser(ctx, id)
//	})
//	user, err := h.Wait(ctx)
//
// Pacing applies to admission only. A slow or stuck operation never holds
// back the ones behind it, and a failing operation only fails its own
// handle. Failures are wrapped in [*OperationError]; use [IsOperationError],
// [OperationOf] and [CauseOf] to inspect them. A factory that panics fails
// its handle with a [*PanicError].
//
// [Queue.Close], or cancelling the queue's context, fails every operation
// not yet admitted with [ErrQueueClosed].
//
// # Observability
//
// The queue reports through hooks rather than a logger:
//
//   - [WithOnEvent]: called for every [Event] (submitted, admitted,
//     resolved, failed, dropped).
//   - [WithQueueMetrics]: periodic [QueueStats] snapshots on the queue's
//     clock. [Queue.Stats] returns the same snapshot on demand.
//
// # Matching
//
// [MatchPair] pairs items of two streams that share a key, matching each
// new item against the oldest unmatched item of the other side.
// [SampleAndCombineLatest] combines every item of one stream with the
// latest item of another.
//
// # Observable State
//
// [Property] is a settable value with optional validation that replays its
// current value to new subscribers. [List] is an ordered list that
// publishes a [ListChange] for every mutation and collapses large bulk
// changes into a single reset.
package reactive
