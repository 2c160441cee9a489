// Package scheduler runs a set of task descriptors through an execution backend while respecting their
// dependencies and a bounded number of concurrently live tasks.
//
// A run keeps three collections. `todo` holds pending and waiting records in FIFO order, `live` holds the
// dispatched records and `done` the completed ones. The dispatch loop pops records from the front of `todo`,
// moves the ones whose dependencies are done to `live`, and requeues the others at the tail marked as
// waiting. It runs at start and again after every event that completes a task or frees a slot. All state
// changes happen on the goroutine that called Run; backends only report signals through a channel.
package scheduler

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

// Scheduler executes runs. It may be reused for several runs, one at a time.
type Scheduler struct {
	backend   backend.Backend
	logger    log.Logger
	observers []Observer
	pool      SlotPool
	running   atomic.Bool
	validate  bool
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithBackend sets the execution backend.
func WithBackend(b backend.Backend) Option {
	return func(s *Scheduler) {
		s.backend = b
	}
}

// WithParallelism sets the number of available processors the slot pool is sized from.
func WithParallelism(available int) Option {
	return func(s *Scheduler) {
		s.pool = NewSlotPool(Capacity(available))
	}
}

// WithCapacity sets the number of slots directly.
func WithCapacity(capacity int) Option {
	return func(s *Scheduler) {
		s.pool = NewSlotPool(capacity)
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithObservers appends lifecycle observers.
func WithObservers(observers ...Observer) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, observers...)
	}
}

// WithValidation toggles the dependency checks done before the first dispatch. When disabled, unknown
// dependencies and cycles are only detected once every remaining task is waiting.
func WithValidation(enabled bool) Option {
	return func(s *Scheduler) {
		s.validate = enabled
	}
}

// New returns a scheduler. By default the slot pool is sized from runtime.NumCPU and validation is enabled.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:   log.Default(),
		pool:     NewSlotPool(Capacity(runtime.NumCPU())),
		validate: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Capacity returns the maximum number of live tasks.
func (s *Scheduler) Capacity() int {
	return s.pool.Capacity()
}

// Run executes the descriptors and returns the records in the order they completed.
// It fails on the first task failure, when the remaining tasks can never become ready,
// or when ctx is cancelled. In every failure case the tasks still live are cancelled before Run returns.
// Tasks lost by the backend are left out of the result; the run fails because of them only if
// queued tasks were waiting on them.
func (s *Scheduler) Run(ctx context.Context, descs []*task.Descriptor) ([]*task.Record, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if len(descs) == 0 {
		return []*task.Record{}, nil
	}

	if s.backend == nil {
		return nil, ErrNoBackend
	}

	check := CheckLabels
	if s.validate {
		check = Validate
	}

	if err := check(descs); err != nil {
		return nil, err
	}

	return newRun(s, descs).execute(ctx)
}
