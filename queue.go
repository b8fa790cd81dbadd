package reactive

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/baxromumarov/reactive/clock"
)

// Queue admits deferred operations one at a time, in submission order,
// no faster than one per configured rate. Items that arrive slower than
// the rate start immediately; a burst is spread out instead of dropped.
//
// Pacing applies to admission, not completion: a long-running operation
// does not hold back the next one once its interval has passed. Each
// operation's outcome is delivered only through its own [Handle]; a
// failing operation never affects the queue or its siblings.
//
// A Queue is wired once, in [NewQueue]: an internal sequencing stream
// feeds [LimitRate], whose output starts operations. Nothing re-wires it.
type Queue struct {
	ctx  context.Context
	clk  clock.Clock
	rate time.Duration
	cfg  queueConfig

	ops    *Subject[*operation]
	wiring Subscription

	// mu guards submission: pushes into ops happen one at a time, in the
	// order submitters reached mu, and never with mu held.
	mu      sync.Mutex
	inbox   []*operation
	pushing bool
	pending map[uuid.UUID]*operation
	seq     uint64
	closed  bool

	stopCtx      func() bool
	metricsMu    sync.Mutex
	metricsTimer clock.Timer

	submitted atomic.Int64
	admitted  atomic.Int64
	resolved  atomic.Int64
	failed    atomic.Int64
}

// operation is the type-erased record of one submitted unit of work.
type operation struct {
	id   uuid.UUID
	seq  uint64
	run  func()      // starts the work; called once, at admission
	drop func(error) // settles the handle when the queue closes first
}

// NewQueue creates a Queue that admits at most one operation per rate.
// A zero rate admits operations as fast as they arrive, still one at a
// time and in order.
//
// ctx is handed to functions submitted with [EnqueueFunc] and [EnqueueErr];
// cancelling it closes the queue as if by [Queue.Close].
//
// NewQueue panics if ctx is nil or rate is negative.
func NewQueue(ctx context.Context, rate time.Duration, opts ...QueueOption) *Queue {
	if ctx == nil {
		panic("reactive: NewQueue requires non-nil context")
	}
	if rate < 0 {
		panic("reactive: NewQueue requires non-negative rate")
	}

	cfg := defaultQueueConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &Queue{
		ctx:     ctx,
		clk:     cfg.clock,
		rate:    rate,
		cfg:     cfg,
		ops:     NewSubject[*operation](),
		pending: make(map[uuid.UUID]*operation),
	}

	q.wiring = LimitRate(q.ops.Observable(), rate, q.clk).Subscribe(q.admit, nil, nil)

	// Close may run on the AfterFunc goroutine before NewQueue returns.
	q.mu.Lock()
	q.stopCtx = context.AfterFunc(ctx, q.Close)
	q.mu.Unlock()

	if cfg.onMetrics != nil {
		q.scheduleMetrics()
	}

	return q
}

// Rate returns the minimum interval between two admissions.
func (q *Queue) Rate() time.Duration {
	return q.rate
}

// Enqueue submits an operation and returns its handle immediately.
//
// factory is invoked at most once, when the queue admits the operation.
// The handle resolves with the last value of the returned stream when it
// completes, fails with the stream's error, or fails with [ErrNoResult]
// if the stream completes empty. A panicking factory fails the handle with
// a [*PanicError]. Every failure is wrapped in an [*OperationError].
//
// Enqueue is safe for concurrent use and may be called from inside a
// running operation. It never blocks on the rate.
//
// Enqueue panics if q or factory is nil.
func Enqueue[T any](q *Queue, factory func() *Observable[T]) *Handle[T] {
	if q == nil {
		panic("reactive: Enqueue requires non-nil queue")
	}
	if factory == nil {
		panic("reactive: Enqueue requires non-nil factory")
	}

	h := newHandle[T](uuid.New())
	op := &operation{
		id: h.id,
		run: func() {
			evaluate(h, factory, q.settled)
		},
		drop: func(err error) {
			h.fail(&OperationError{ID: h.id, Err: err})
		},
	}
	q.submit(op)
	return h
}

// EnqueueFunc submits fn as an operation producing a single value. fn
// starts in its own goroutine at admission, so a slow fn does not delay
// the admission of the next operation. fn receives the queue's context.
//
// EnqueueFunc panics if fn is nil.
func EnqueueFunc[T any](q *Queue, fn func(ctx context.Context) (T, error)) *Handle[T] {
	if fn == nil {
		panic("reactive: EnqueueFunc requires non-nil function")
	}
	return Enqueue(q, func() *Observable[T] {
		return Start(q.ctx, fn)
	})
}

// EnqueueErr submits fn as an operation without a result value. See
// [EnqueueFunc].
//
// EnqueueErr panics if fn is nil.
func EnqueueErr(q *Queue, fn func(ctx context.Context) error) *Handle[struct{}] {
	if fn == nil {
		panic("reactive: EnqueueErr requires non-nil function")
	}
	return EnqueueFunc(q, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

func (q *Queue) submit(op *operation) {
	q.submitted.Add(1)
	q.emit(EventSubmitted, op.id, nil)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.dropped(op)
		return
	}

	op.seq = q.seq
	q.seq++
	q.pending[op.id] = op
	q.inbox = append(q.inbox, op)
	if q.pushing {
		// The goroutine already pushing picks this one up in order.
		q.mu.Unlock()
		return
	}
	q.pushing = true

	for len(q.inbox) > 0 && !q.closed {
		next := q.inbox[0]
		q.inbox[0] = nil
		q.inbox = q.inbox[1:]
		q.mu.Unlock()

		q.ops.Next(next)

		q.mu.Lock()
	}
	q.inbox = nil
	q.pushing = false
	q.mu.Unlock()
}

func (q *Queue) dropped(op *operation) {
	q.failed.Add(1)
	q.emit(EventDropped, op.id, ErrQueueClosed)
	op.drop(ErrQueueClosed)
}

// admit receives operations released by the rate limiter.
func (q *Queue) admit(op *operation) {
	q.mu.Lock()
	_, ok := q.pending[op.id]
	delete(q.pending, op.id)
	q.mu.Unlock()

	if !ok {
		// Already dropped by Close.
		return
	}

	q.admitted.Add(1)
	q.emit(EventAdmitted, op.id, nil)
	op.run()
}

func (q *Queue) settled(id uuid.UUID, err error) {
	if err != nil {
		q.failed.Add(1)
		q.emit(EventFailed, id, err)
		return
	}
	q.resolved.Add(1)
	q.emit(EventResolved, id, nil)
}

// evaluate starts one operation and routes its outcome to h. Failures are
// captured on h only; nothing propagates back into the admission pipeline.
func evaluate[T any](h *Handle[T], factory func() *Observable[T], settled func(uuid.UUID, error)) {
	failWith := func(err error) {
		oe := &OperationError{ID: h.id, Err: err}
		if h.fail(oe) {
			settled(h.id, oe)
		}
	}

	src, err := callFactory(factory)
	if err != nil {
		failWith(err)
		return
	}
	if src == nil {
		failWith(ErrNoResult)
		return
	}

	var (
		mu   sync.Mutex
		last T
		has  bool
	)
	src.Subscribe(
		func(v T) {
			mu.Lock()
			last, has = v, true
			mu.Unlock()
		},
		failWith,
		func() {
			mu.Lock()
			v, ok := last, has
			mu.Unlock()

			if !ok {
				failWith(ErrNoResult)
				return
			}
			if h.resolve(v) {
				settled(h.id, nil)
			}
		},
	)
}

func callFactory[T any](factory func() *Observable[T]) (src *Observable[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return factory(), nil
}

func (q *Queue) emit(kind EventKind, id uuid.UUID, err error) {
	if q.cfg.onEvent == nil {
		return
	}
	q.cfg.onEvent(Event{
		Kind: kind,
		ID:   id,
		At:   q.clk.Now(),
		Err:  err,
	})
}

// Stats returns a point-in-time snapshot of queue activity.
// Safe to call concurrently.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()

	return QueueStats{
		Submitted: q.submitted.Load(),
		Admitted:  q.admitted.Load(),
		Resolved:  q.resolved.Load(),
		Failed:    q.failed.Load(),
		Pending:   pending,
	}
}

// Closed reports whether the queue has been closed.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close tears the queue down. The pending rate timer is stopped, every
// operation not yet admitted fails with [ErrQueueClosed], and later
// submissions fail the same way. Operations already admitted keep running
// and still settle their handles.
//
// Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	waiting := make([]*operation, 0, len(q.pending))
	for _, op := range q.pending {
		waiting = append(waiting, op)
	}
	slices.SortFunc(waiting, func(a, b *operation) int { return cmp.Compare(a.seq, b.seq) })
	q.pending = make(map[uuid.UUID]*operation)
	stopCtx := q.stopCtx
	q.mu.Unlock()

	q.wiring.Unsubscribe()
	stopCtx()

	q.metricsMu.Lock()
	if q.metricsTimer != nil {
		q.metricsTimer.Stop()
		q.metricsTimer = nil
	}
	q.metricsMu.Unlock()

	for _, op := range waiting {
		q.dropped(op)
	}
}

func (q *Queue) scheduleMetrics() {
	q.metricsMu.Lock()
	defer q.metricsMu.Unlock()

	if q.Closed() {
		return
	}
	q.metricsTimer = q.clk.AfterFunc(q.cfg.metricsInterval, func() {
		if q.Closed() {
			return
		}
		q.cfg.onMetrics(q.Stats())
		q.scheduleMetrics()
	})
}
