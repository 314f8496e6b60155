package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/runspec/packages/metrics"
	"github.com/abdul-hamid-achik/runspec/packages/report"
	"github.com/abdul-hamid-achik/runspec/packages/spec"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Scheduler dispatches case invocations onto a bounded worker pool.
// The pool is created and torn down per case; cases themselves run
// sequentially relative to each other.
type Scheduler struct {
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// Option configures the scheduler
type Option func(*Scheduler)

// WithRate paces invocation starts at the given rate per second
// across all cases
func WithRate(perSecond float64) Option {
	return func(s *Scheduler) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMetrics records per-invocation latency and outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// New creates a scheduler
func New(opts ...Option) *Scheduler {
	s := &Scheduler{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunCase runs one case: it emits Started, dispatches the configured
// number of invocations onto a pool of max(1, threads) workers, emits
// Finished once everything is dispatched, then blocks until the batch
// drains or the case timeout elapses. Each invocation is isolated; a
// failing one is reported and never cancels its siblings or escapes
// this method. On timeout exactly one extra timeout-kind failure is
// emitted and outstanding invocations are abandoned.
func (s *Scheduler) RunCase(ctx context.Context, c *spec.Case, rep report.Reporter) {
	desc := report.Describe(c)
	rep.Started(desc)

	threads := c.Config.Threads
	if threads < 2 {
		// A single worker: invocations are serialized
		threads = 1
	}

	batchCtx, cancel := context.WithTimeout(ctx, c.Config.Timeout)
	defer cancel()

	pool := semaphore.NewWeighted(int64(threads))
	var wg sync.WaitGroup
	for i := 0; i < c.Config.Invocations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Queued invocations that never get a slot before the
			// batch is abandoned return silently.
			if err := pool.Acquire(batchCtx, 1); err != nil {
				return
			}
			defer pool.Release(1)

			if s.limiter != nil {
				if err := s.limiter.Wait(batchCtx); err != nil {
					return
				}
			}
			s.runInvocation(c, desc, rep)
		}()
	}

	// Finished marks that all work has been dispatched, not that
	// results are in. Failure events may still arrive afterward.
	rep.Finished(desc)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-batchCtx.Done():
		if errors.Is(batchCtx.Err(), context.DeadlineExceeded) {
			rep.Failure(desc, &TimeoutError{Case: desc.String(), Elapsed: c.Config.Timeout})
			if s.metrics != nil {
				s.metrics.ObserveTimeout()
			}
		} else {
			rep.Failure(desc, fmt.Errorf("run canceled: %w", batchCtx.Err()))
		}
	}
}

func (s *Scheduler) runInvocation(c *spec.Case, desc report.Description, rep report.Reporter) {
	start := time.Now()
	err := runAction(c.Action)
	if s.metrics != nil {
		s.metrics.Observe(time.Since(start), err != nil)
	}
	if err != nil {
		rep.Failure(desc, err)
	}
}

// runAction is the catch-all boundary at the invocation edge: besides
// the action's own error, a panic in a case body is captured and
// reported like any other failure.
func runAction(action spec.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in case body: %v", r)
		}
	}()
	if action == nil {
		return nil
	}
	return action()
}
