package distributed

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/store"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

// DefaultPollInterval is the average pause between two polls of a worker.
const DefaultPollInterval = time.Second

// PollResult is the outcome of one poll.
type PollResult byte

const (
	// PollNotReady means the ready gate was closed.
	PollNotReady PollResult = iota
	// PollEmpty means todo was empty.
	PollEmpty
	// PollRequeued means the popped task still had unfinished dependencies and went back to the tail of todo.
	PollRequeued
	// PollRan means a task was run, successfully or not.
	PollRan
)

// Worker pops labels from `todo` and runs the matching descriptors through a backend.
type Worker struct {
	store    store.Store
	backend  backend.Backend
	logger   log.Logger
	descs    map[string]*task.Descriptor
	id       string
	interval time.Duration
	drain    bool
}

// WorkerOption configures the Worker.
type WorkerOption func(*Worker)

// WithPollInterval sets the average pause between polls. Every pause is jittered by half of it.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) {
		w.interval = interval
	}
}

// WithDrain makes Run return as soon as `todo` is found empty, instead of polling until ctx is done.
func WithDrain(drain bool) WorkerOption {
	return func(w *Worker) {
		w.drain = drain
	}
}

// WithWorkerLogger sets the logger.
func WithWorkerLogger(logger log.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithWorkerID sets the id used in log lines. Defaults to a random uuid.
func WithWorkerID(id string) WorkerOption {
	return func(w *Worker) {
		w.id = id
	}
}

// NewWorker returns a worker running the given descriptors, looked up by label, through b.
func NewWorker(s store.Store, b backend.Backend, descs []*task.Descriptor, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:    s,
		backend:  b,
		logger:   log.Default(),
		descs:    make(map[string]*task.Descriptor, len(descs)),
		id:       uuid.NewString(),
		interval: DefaultPollInterval,
	}

	for _, desc := range descs {
		w.descs[desc.Label] = desc
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.WithField(log.FieldKeyWorker, w.id)

	return w
}

// ID returns the worker id.
func (w *Worker) ID() string {
	return w.id
}

// Run polls until ctx is done, or until `todo` is empty when draining.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Debugf("Worker started")

	for {
		result, err := w.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		if result == PollEmpty && w.drain {
			w.logger.Debugf("Nothing left to do")
			return nil
		}

		if err := w.sleep(ctx); err != nil {
			return nil
		}
	}
}

// Poll checks the ready gate, pops one label and either runs it or requeues it.
func (w *Worker) Poll(ctx context.Context) (PollResult, error) {
	ready, err := store.IsReady(ctx, w.store)
	if err != nil {
		return PollNotReady, err
	}

	if !ready {
		return PollNotReady, nil
	}

	label, err := w.store.LPop(ctx, store.TodoKey)
	if errors.Is(err, store.ErrNotFound) {
		return PollEmpty, nil
	}

	if err != nil {
		return PollNotReady, err
	}

	logger := w.logger.WithField(log.FieldKeyTask, label)

	desc, ok := w.descs[label]
	if !ok {
		logger.Errorf("Unknown task, marking it failed")
		return PollRan, w.store.RPush(ctx, store.FailedKey, label)
	}

	if desc.HasDeps() {
		done, err := store.List(ctx, w.store, store.DoneKey)
		if err != nil {
			return PollRan, w.requeue(ctx, label, err)
		}

		if missing := missingDeps(desc, done); len(missing) > 0 {
			logger.Tracef("Waiting on %v", missing)
			return PollRequeued, w.store.RPush(ctx, store.TodoKey, label)
		}
	}

	if err := w.store.RPush(ctx, store.LiveKey, label); err != nil {
		return PollRan, w.requeue(ctx, label, err)
	}

	runErr := w.run(ctx, desc)

	// A worker stopped mid task gives it back instead of reporting a failure.
	if ctx.Err() != nil {
		cleanupCtx := context.WithoutCancel(ctx)

		if _, err := w.store.LRem(cleanupCtx, store.LiveKey, 1, label); err != nil {
			return PollRan, err
		}

		return PollRan, w.store.LPush(cleanupCtx, store.TodoKey, label)
	}

	if _, err := w.store.LRem(ctx, store.LiveKey, 1, label); err != nil {
		return PollRan, err
	}

	if runErr != nil {
		logger.WithError(runErr).Errorf("Failed")
		return PollRan, w.store.RPush(ctx, store.FailedKey, label)
	}

	logger.Infof("Completed")

	return PollRan, w.store.RPush(ctx, store.DoneKey, label)
}

// requeue gives the label back after a store error, then reports the error.
func (w *Worker) requeue(ctx context.Context, label string, cause error) error {
	if err := w.store.LPush(context.WithoutCancel(ctx), store.TodoKey, label); err != nil {
		return errors.Join(cause, err)
	}

	return cause
}

// run executes the descriptor and waits for its terminal signal.
func (w *Worker) run(ctx context.Context, desc *task.Descriptor) error {
	handle, err := w.backend.Execute(ctx, desc)
	if err != nil {
		return err
	}

	signals := handle.Signals()
	cancelled := false

	for {
		select {
		case signal, ok := <-signals:
			if !ok {
				return errors.Errorf("task %s ended without a result", desc.Label)
			}

			switch signal.Kind {
			case backend.Completed:
				return nil
			case backend.Failed:
				return signal.Cause
			}
		case <-ctx.Done():
			if !cancelled {
				cancelled = true
				w.backend.Cancel(handle)
			}

			// keep draining until the backend reports the end of the task
			ctx = context.WithoutCancel(ctx)
		}
	}
}

func (w *Worker) sleep(ctx context.Context) error {
	timer := time.NewTimer(Jitter(w.interval))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Jitter returns a random duration within half an interval of it.
func Jitter(interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}

	return interval/2 + rand.N(interval)
}

func missingDeps(desc *task.Descriptor, done []string) []string {
	var missing []string

	for _, dep := range desc.Deps {
		if !slices.Contains(done, dep) {
			missing = append(missing, dep)
		}
	}

	return missing
}
