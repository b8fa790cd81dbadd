// Command reactivedemo runs a rate-limited queue and a pairwise matcher as
// described by a YAML file, printing every lifecycle event.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/baxromumarov/reactive"
)

// main launches reactivedemo.
func main() {
	os.Exit(run())
}

// run executes reactivedemo and returns an exit code.
func run() int {
	configPath := flag.String("config", "config.yaml", "path to reactivedemo config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runQueue(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "queue error: %v\n", err)
		return 1
	}
	if err := runMatcher(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "matcher error: %v\n", err)
		return 1
	}
	return 0
}

var errInjected = errors.New("injected failure")

func runQueue(ctx context.Context, cfg settings) error {
	start := time.Now()
	opts := []reactive.QueueOption{
		reactive.WithOnEvent(func(e reactive.Event) {
			line := fmt.Sprintf("[%8s] %-9s %s", e.At.Sub(start).Round(time.Millisecond), e.Kind, e.ID)
			if e.Err != nil {
				line += ": " + reactive.CauseOf(e.Err).Error()
			}
			fmt.Println(line)
		}),
	}
	if cfg.metricsInterval > 0 {
		opts = append(opts, reactive.WithQueueMetrics(cfg.metricsInterval, func(s reactive.QueueStats) {
			fmt.Printf("[metrics] submitted=%d admitted=%d resolved=%d failed=%d pending=%d\n",
				s.Submitted, s.Admitted, s.Resolved, s.Failed, s.Pending)
		}))
	}

	q := reactive.NewQueue(ctx, cfg.rate, opts...)
	defer q.Close()

	handles := make([]*reactive.Handle[int], cfg.operations)
	for i := range handles {
		handles[i] = reactive.EnqueueFunc(q, func(ctx context.Context) (int, error) {
			if cfg.failEvery > 0 && (i+1)%cfg.failEvery == 0 {
				return 0, errInjected
			}
			select {
			case <-time.After(cfg.work):
				return i * i, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		})
	}

	var failed int
	for i, h := range handles {
		v, err := h.Wait(ctx)
		switch {
		case errors.Is(err, errInjected):
			failed++
		case err != nil:
			return err
		default:
			fmt.Printf("operation %d -> %d\n", i, v)
		}
	}

	s := q.Stats()
	fmt.Printf("done: %d resolved, %d failed in %v\n", s.Resolved, failed, time.Since(start).Round(time.Millisecond))
	return nil
}

func runMatcher(ctx context.Context, cfg settings) error {
	if len(cfg.left) == 0 && len(cfg.right) == 0 {
		return nil
	}

	key := func(s string) string {
		k, _, _ := strings.Cut(s, ":")
		return k
	}
	pairs, err := reactive.MatchPair(reactive.FromSlice(cfg.left), reactive.FromSlice(cfg.right), key).ToSlice(ctx)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		fmt.Printf("matched %s\n", p)
	}
	fmt.Printf("%d pairs, %d unmatched\n", len(pairs), len(cfg.left)+len(cfg.right)-2*len(pairs))
	return nil
}
