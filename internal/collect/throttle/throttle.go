// Package throttle executes batches of independent fetch operations with
// bounded concurrency, inter-request spacing, and exponential-backoff retry
// on transient rate-limit failures.
package throttle

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// groupCooldownFactor scales the pause between consecutive groups relative to
// the within-group stagger. Cross-group pauses are what let a provider's rate
// window recover, so they are deliberately longer.
const groupCooldownFactor = 2

// Op is a single zero-argument fetch operation. Ops must be independent of
// each other; each owns its own result slot.
type Op[T any] func(ctx context.Context) (T, error)

// Result carries one operation's outcome. Err is the operation's final error
// after the retry policy gave up; it never aborts the batch.
type Result[T any] struct {
	Value T
	Err   error
}

// Executor runs operation batches with bounded concurrency and spacing.
// Its fields are read-only configuration; an Executor is safe for concurrent
// use.
type Executor[T any] struct {
	// MaxConcurrent is the group size: at most this many operations are
	// unresolved at any instant.
	MaxConcurrent int

	// InterRequestDelay staggers launches inside a group so a group's
	// requests spread out rather than bursting.
	InterRequestDelay time.Duration

	// Retry wraps every operation before it joins a group.
	Retry RetryPolicy

	// sleep is swapped by tests to observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an executor with the given concurrency bound and spacing and
// the default retry policy.
func New[T any](maxConcurrent int, interRequestDelay time.Duration) *Executor[T] {
	return &Executor[T]{
		MaxConcurrent:     maxConcurrent,
		InterRequestDelay: interRequestDelay,
		Retry:             DefaultRetryPolicy(),
		sleep:             sleepCtx,
	}
}

// Run executes all operations and returns their results in input order
// (group-major, then per-group original order), so downstream flattening can
// be correlated back to configuration order. Per-operation failures are
// captured in Result.Err; the only returned error is context cancellation.
func (e *Executor[T]) Run(ctx context.Context, ops []Op[T]) ([]Result[T], error) {
	if len(ops) == 0 {
		return nil, nil
	}

	maxConcurrent := e.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]Result[T], len(ops))

	for start := 0; start < len(ops); start += maxConcurrent {
		if start > 0 {
			err := e.sleepFn()(ctx, groupCooldownFactor*e.InterRequestDelay)
			if err != nil {
				return nil, err
			}
		}

		end := min(start+maxConcurrent, len(ops))

		err := e.runGroup(ctx, ops[start:end], results[start:end])
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// runGroup starts one group of operations with staggered launches and waits
// for all of them. Each operation writes only its own result slot; the
// group's Wait is the sole join point, so no locking is needed.
func (e *Executor[T]) runGroup(ctx context.Context, ops []Op[T], results []Result[T]) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for i, op := range ops {
		stagger := time.Duration(i) * e.InterRequestDelay

		group.Go(func() error {
			if stagger > 0 {
				sleepErr := e.sleepFn()(groupCtx, stagger)
				if sleepErr != nil {
					return sleepErr
				}
			}

			value, err := e.retryOp(groupCtx, op)
			if err != nil && errors.Is(err, groupCtx.Err()) {
				return err
			}

			results[i] = Result[T]{Value: value, Err: err}

			return nil
		})
	}

	return group.Wait()
}

// retryOp runs op under the executor's retry policy: transient rate-limit
// failures are retried with exponential backoff, anything else surfaces
// immediately.
func (e *Executor[T]) retryOp(ctx context.Context, op Op[T]) (T, error) {
	var lastErr error

	var zero T

	for attempt := 0; ; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}

		lastErr = err

		if !e.Retry.ShouldRetry(attempt, err) {
			return zero, lastErr
		}

		sleepErr := e.sleepFn()(ctx, e.Retry.Delay(attempt))
		if sleepErr != nil {
			return zero, sleepErr
		}
	}
}

func (e *Executor[T]) sleepFn() func(ctx context.Context, d time.Duration) error {
	if e.sleep != nil {
		return e.sleep
	}

	return sleepCtx
}

// sleepCtx sleeps for d, waking early on context cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
