// Package scheduler fans directory translation out across documents with
// a bounded number of concurrent tasks, each owning an isolated cache and
// translator clone. Grounded on the teacher's internal/orchestrator
// concurrent-fan-out idiom (WaitGroup + result channel collected after
// every goroutine finishes, never aborting early on one failure); bounded
// concurrency itself uses golang.org/x/sync/semaphore, already a pack
// dependency, in place of the teacher's unbounded fan-out since directory
// mode must cap concurrent document tasks (default 3) rather than run
// every file at once.
package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of concurrent document tasks used when
// Concurrency is unset or non-positive.
const DefaultConcurrency = 3

// TaskFunc translates one document, identified by path. Implementations
// must build their own TranslationCache and Translator clone per call —
// the scheduler shares nothing mutable across concurrent invocations.
type TaskFunc func(ctx context.Context, path string) (any, error)

// Result is one task's outcome, paired with the path it translated.
type Result struct {
	Path   string
	Output any
	Err    error
}

// Scheduler runs a bounded number of TaskFuncs concurrently.
type Scheduler struct {
	Concurrency int
}

// New builds a Scheduler with the given concurrency, falling back to
// DefaultConcurrency when n is non-positive.
func New(n int) *Scheduler {
	if n <= 0 {
		n = DefaultConcurrency
	}
	return &Scheduler{Concurrency: n}
}

// Run translates every path via fn, at most s.Concurrency at a time.
// Results preserve the input order regardless of completion order. A
// single task's failure does not cancel or skip the rest — directory mode
// logs per-file failures and continues, per the propagation policy.
func (s *Scheduler) Run(ctx context.Context, paths []string, fn TaskFunc) []Result {
	n := s.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}

	results := make([]Result, len(paths))
	sem := semaphore.NewWeighted(int64(n))

	var wg sync.WaitGroup
	for i, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context was cancelled before this task could start; record
			// the cancellation and stop launching new tasks.
			for j := i; j < len(paths); j++ {
				results[j] = Result{Path: paths[j], Err: ctx.Err()}
			}
			break
		}

		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := fn(ctx, p)
			results[idx] = Result{Path: p, Output: out, Err: err}
		}(i, path)
	}

	wg.Wait()
	return results
}
