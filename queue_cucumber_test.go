//go:build cucumber

package reactive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/baxromumarov/reactive/clock"
)

// TestQueueScenarios runs the queue feature scenarios.
func TestQueueScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "queue",
		ScenarioInitializer: InitializeQueueScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("testdata", "features", "queue.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeQueueScenario wires steps for queue feature scenarios.
func InitializeQueueScenario(ctx *godog.ScenarioContext) {
	state := &queueScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if state.queue != nil {
			state.queue.Close()
		}
		return ctx, nil
	})

	ctx.Step(`^a queue with a rate of (\d+) seconds? on a virtual clock$`, state.givenQueue)
	ctx.Step(`^operation (\d+) fails with "([^"]+)"$`, state.givenOperationFails)
	ctx.Step(`^I enqueue (\d+) operations$`, state.whenIEnqueue)
	ctx.Step(`^I advance the clock by (\d+) seconds$`, state.whenIAdvance)
	ctx.Step(`^I close the queue$`, state.whenIClose)
	ctx.Step(`^operation (\d+) started at (\d+) seconds$`, state.thenStartedAt)
	ctx.Step(`^every operation resolved$`, state.thenEveryResolved)
	ctx.Step(`^operation (\d+) resolved$`, state.thenResolved)
	ctx.Step(`^operation (\d+) failed with "([^"]+)"$`, state.thenFailedWith)
	ctx.Step(`^operation (\d+) was dropped$`, state.thenDropped)
	ctx.Step(`^(\d+) operations started$`, state.thenStartedCount)
}

// queueScenarioState holds scenario state for queue feature tests.
type queueScenarioState struct {
	clk      *clock.Manual
	queue    *Queue
	failures map[int]string
	started  map[int]time.Duration
	handles  []*Handle[int]
}

// reset clears scenario state.
func (s *queueScenarioState) reset() {
	s.clk = nil
	s.queue = nil
	s.failures = make(map[int]string)
	s.started = make(map[int]time.Duration)
	s.handles = nil
}

func (s *queueScenarioState) givenQueue(seconds int) error {
	s.clk = clock.NewManual(epoch)
	s.queue = NewQueue(context.Background(), time.Duration(seconds)*time.Second, WithClock(s.clk))
	return nil
}

func (s *queueScenarioState) givenOperationFails(n int, msg string) error {
	s.failures[n] = msg
	return nil
}

// whenIEnqueue submits n operations numbered from 1. Each records when it
// started and fails if a failure was configured for its number.
func (s *queueScenarioState) whenIEnqueue(n int) error {
	for range n {
		num := len(s.handles) + 1
		s.handles = append(s.handles, Enqueue(s.queue, func() *Observable[int] {
			s.started[num] = s.clk.Now().Sub(epoch)
			if msg, ok := s.failures[num]; ok {
				return Fail[int](errors.New(msg))
			}
			return Just(num)
		}))
	}
	return nil
}

func (s *queueScenarioState) whenIAdvance(seconds int) error {
	s.clk.Advance(time.Duration(seconds) * time.Second)
	return nil
}

func (s *queueScenarioState) whenIClose() error {
	s.queue.Close()
	return nil
}

func (s *queueScenarioState) handle(n int) (*Handle[int], error) {
	if n < 1 || n > len(s.handles) {
		return nil, fmt.Errorf("operation %d was not enqueued", n)
	}
	return s.handles[n-1], nil
}

func (s *queueScenarioState) thenStartedAt(n, seconds int) error {
	at, ok := s.started[n]
	if !ok {
		return fmt.Errorf("operation %d never started", n)
	}
	if want := time.Duration(seconds) * time.Second; at != want {
		return fmt.Errorf("operation %d started at %v, want %v", n, at, want)
	}
	return nil
}

func (s *queueScenarioState) thenEveryResolved() error {
	for i := range s.handles {
		if err := s.thenResolved(i + 1); err != nil {
			return err
		}
	}
	return nil
}

func (s *queueScenarioState) thenResolved(n int) error {
	h, err := s.handle(n)
	if err != nil {
		return err
	}
	v, ok, err := h.Result()
	switch {
	case !ok:
		return fmt.Errorf("operation %d is still pending", n)
	case err != nil:
		return fmt.Errorf("operation %d failed: %w", n, err)
	case v != n:
		return fmt.Errorf("operation %d resolved with %d", n, v)
	}
	return nil
}

func (s *queueScenarioState) thenFailedWith(n int, msg string) error {
	h, err := s.handle(n)
	if err != nil {
		return err
	}
	_, ok, err := h.Result()
	if !ok || err == nil {
		return fmt.Errorf("operation %d did not fail", n)
	}
	if got := CauseOf(err).Error(); got != msg {
		return fmt.Errorf("operation %d failed with %q, want %q", n, got, msg)
	}
	return nil
}

func (s *queueScenarioState) thenDropped(n int) error {
	h, err := s.handle(n)
	if err != nil {
		return err
	}
	_, ok, err := h.Result()
	if !ok || !errors.Is(err, ErrQueueClosed) {
		return fmt.Errorf("operation %d was not dropped: %v", n, err)
	}
	return nil
}

func (s *queueScenarioState) thenStartedCount(n int) error {
	if len(s.started) != n {
		return fmt.Errorf("%d operations started, want %d", len(s.started), n)
	}
	return nil
}
