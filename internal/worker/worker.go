// Package worker runs long lived jobs, such as store pollers, side by side with a bounded concurrency.
//
// Jobs receive a context that is cancelled when the pool is stopped, or when another job fails and the
// pool was built with WithFailFast. Errors of all jobs are collected and returned together by Wait.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

// Job is a unit of work run by the pool.
type Job func(ctx context.Context) error

// Option configures the Pool.
type Option func(*Pool)

// WithFailFast cancels the remaining jobs as soon as one of them fails.
func WithFailFast() Option {
	return func(wp *Pool) {
		wp.failFast = true
	}
}

// Pool manages concurrent job execution with a configurable number of workers.
type Pool struct {
	ctx         context.Context
	cancel      context.CancelFunc
	semaphore   chan struct{}
	allErrors   *errors.MultiError
	wg          sync.WaitGroup
	maxWorkers  int
	allErrorsMu sync.Mutex
	isStopping  atomic.Bool
	failFast    bool
}

// NewWorkerPool creates a pool running at most maxWorkers jobs at once. Jobs get a context derived from ctx.
func NewWorkerPool(ctx context.Context, maxWorkers int, opts ...Option) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	wp := &Pool{
		ctx:        ctx,
		cancel:     cancel,
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		allErrors:  &errors.MultiError{},
	}

	for _, opt := range opts {
		opt(wp)
	}

	return wp
}

// appendError safely appends an error to allErrors
func (wp *Pool) appendError(err error) {
	wp.allErrorsMu.Lock()
	wp.allErrors = wp.allErrors.Append(err)
	wp.allErrorsMu.Unlock()

	if wp.failFast {
		wp.cancel()
	}
}

// Submit starts the job as soon as a worker is free. Jobs submitted after Stop are dropped.
func (wp *Pool) Submit(job Job) {
	if wp.isStopping.Load() {
		return
	}

	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()

		select {
		case wp.semaphore <- struct{}{}:
		case <-wp.ctx.Done():
			return
		}

		defer func() { <-wp.semaphore }()

		var err error

		func() {
			defer errors.Recover(func(cause error) { err = cause })

			err = job(wp.ctx)
		}()

		if err != nil {
			wp.appendError(err)
		}
	}()
}

// Wait blocks until all jobs are done and returns their errors.
func (wp *Pool) Wait() error {
	wp.wg.Wait()

	wp.allErrorsMu.Lock()
	defer wp.allErrorsMu.Unlock()

	return wp.allErrors.ErrorOrNil()
}

// Stop cancels the running jobs, drops the queued ones and waits for them to return.
func (wp *Pool) Stop() error {
	wp.isStopping.Store(true)
	wp.cancel()

	return wp.Wait()
}

// IsStopping returns whether the pool is in the process of stopping
func (wp *Pool) IsStopping() bool {
	return wp.isStopping.Load()
}
