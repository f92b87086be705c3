// Package executor runs per-file push pipelines with bounded concurrency.
//
// Tasks never fail the group: each task reports its own outcome in its return
// value. Cancelling the context stops scheduling new tasks while tasks
// already started run to completion.
package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a non-positive limit is given.
const DefaultConcurrency = 1

// Executor bounds the number of tasks in flight.
type Executor struct {
	maxConcurrency int

	running atomic.Int64
	peak    atomic.Int64
	started atomic.Int64
}

// New creates an executor that runs at most maxConcurrency tasks at once.
func New(maxConcurrency int) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}
	return &Executor{maxConcurrency: maxConcurrency}
}

// Run calls task for each index in [0, n) and returns the results by index.
// If ctx is cancelled, no further tasks are started; the returned slice then
// holds only the results of started tasks (a prefix of the index range) and
// the error is ctx.Err().
func Run[T any](ctx context.Context, e *Executor, n int, task func(ctx context.Context, i int) T) ([]T, error) {
	results := make([]T, n)

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)

	scheduled := 0
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			e.enter()
			defer e.leave()

			results[i] = task(ctx, i)
			return nil
		})
		scheduled++
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil && scheduled < n {
		return results[:scheduled], fmt.Errorf("scheduled %d of %d tasks: %w", scheduled, n, err)
	}
	return results, nil
}

func (e *Executor) enter() {
	cur := e.running.Add(1)
	e.started.Add(1)
	for {
		peak := e.peak.Load()
		if cur <= peak || e.peak.CompareAndSwap(peak, cur) {
			return
		}
	}
}

func (e *Executor) leave() {
	e.running.Add(-1)
}

// ValidateConcurrency checks that n is a usable concurrency limit.
func ValidateConcurrency(n int) error {
	if n <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", n)
	}
	return nil
}

// Stats returns execution statistics collected so far.
func (e *Executor) Stats() Stats {
	return Stats{
		MaxConcurrency:     e.maxConcurrency,
		CurrentConcurrency: int(e.running.Load()),
		PeakConcurrency:    int(e.peak.Load()),
		Started:            int(e.started.Load()),
	}
}

// Stats contains statistics about an executor.
type Stats struct {
	// MaxConcurrency is the maximum allowed concurrent tasks
	MaxConcurrency int

	// CurrentConcurrency is the number of tasks running now
	CurrentConcurrency int

	// PeakConcurrency is the most tasks ever observed running at once
	PeakConcurrency int

	// Started is the number of tasks started
	Started int
}
