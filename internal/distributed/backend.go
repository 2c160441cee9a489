package distributed

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/store"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

const (
	// maxPollErrors is the number of consecutive store errors after which the pending tasks are failed.
	maxPollErrors = 5
	// lostAfterPolls is the number of consecutive polls a label may be missing from every list before
	// it is reported lost. A label is briefly in no list while a worker moves it from todo to live.
	lostAfterPolls = 3
	// cancelTimeout bounds the store call made by Cancel.
	cancelTimeout = 10 * time.Second
)

// RemoteFailureError is the cause of a Failed signal for a task a worker pushed to the failed list.
type RemoteFailureError struct {
	Label string
}

func (err RemoteFailureError) Error() string {
	return "task " + err.Label + " failed on a worker"
}

// Backend dispatches tasks by pushing their label to `todo` and learns about their outcome by
// polling `done` and `failed`. It is the coordinator side of the workers.
type Backend struct {
	store    store.Store
	logger   log.Logger
	handles  *xsync.MapOf[string, *handle]
	interval time.Duration
	mu       sync.Mutex
	polling  bool
	ready    bool
}

type handle struct {
	*backend.Emitter

	misses int
}

// BackendOption configures the Backend.
type BackendOption func(*Backend)

// WithBackendPollInterval sets how often the store is polled for outcomes.
func WithBackendPollInterval(interval time.Duration) BackendOption {
	return func(b *Backend) {
		b.interval = interval
	}
}

// WithBackendLogger sets the logger.
func WithBackendLogger(logger log.Logger) BackendOption {
	return func(b *Backend) {
		b.logger = logger
	}
}

// NewBackend returns a backend coordinating through s.
func NewBackend(s store.Store, opts ...BackendOption) *Backend {
	b := &Backend{
		store:    s,
		logger:   log.Default(),
		handles:  xsync.NewMapOf[string, *handle](),
		interval: DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Execute implements backend.Backend. The label is queued for the workers; the ready gate is opened on the
// first dispatch.
func (b *Backend) Execute(ctx context.Context, desc *task.Descriptor) (backend.Handle, error) {
	if _, loaded := b.handles.Load(desc.Label); loaded {
		return nil, errors.Errorf("task %s is already dispatched", desc.Label)
	}

	if err := b.openGate(ctx); err != nil {
		return nil, err
	}

	hdl := &handle{Emitter: backend.NewEmitter(desc.Label)}
	b.handles.Store(desc.Label, hdl)

	if err := b.store.RPush(ctx, store.TodoKey, desc.Label); err != nil {
		b.handles.Delete(desc.Label)
		return nil, err
	}

	b.startPolling(ctx)

	return hdl, nil
}

// Cancel implements backend.Backend. A task still queued is taken out of `todo` and acknowledged;
// a task already picked up by a worker runs to completion.
func (b *Backend) Cancel(h backend.Handle) {
	hdl, ok := b.handles.Load(h.Label())
	if !ok || hdl.ID() != h.ID() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
		defer cancel()

		removed, err := b.store.LRem(ctx, store.TodoKey, 0, hdl.Label())
		if err != nil {
			b.logger.WithField(log.FieldKeyTask, hdl.Label()).Warnf("Failed to cancel: %v", err)
			return
		}

		if removed > 0 {
			b.handles.Delete(hdl.Label())
			hdl.Ack()
			hdl.Close()
		}
	}()
}

func (b *Backend) openGate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		return nil
	}

	if err := store.SetReady(ctx, b.store, true); err != nil {
		return err
	}

	b.ready = true

	return nil
}

// startPolling starts the poll loop unless it is already running. The loop stops once no handle is pending.
func (b *Backend) startPolling(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.polling {
		return
	}

	b.polling = true

	go b.pollLoop(context.WithoutCancel(ctx))
}

func (b *Backend) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	errCount := 0

	for range ticker.C {
		if err := b.poll(ctx); err != nil {
			errCount++

			b.logger.Warnf("Failed to poll the store (%d/%d): %v", errCount, maxPollErrors, err)

			if errCount >= maxPollErrors {
				b.failAll(err)
			}
		} else {
			errCount = 0
		}

		b.mu.Lock()

		if b.handles.Size() == 0 {
			b.polling = false
			b.mu.Unlock()

			return
		}

		b.mu.Unlock()
	}
}

// poll reads the lists once and emits the signals of every pending handle whose state changed.
func (b *Backend) poll(ctx context.Context) error {
	lists := make(map[string][]string, 4)

	for _, key := range []string{store.TodoKey, store.LiveKey, store.DoneKey, store.FailedKey} {
		list, err := store.List(ctx, b.store, key)
		if err != nil {
			return err
		}

		lists[key] = list
	}

	b.handles.Range(func(label string, hdl *handle) bool {
		switch {
		case slices.Contains(lists[store.DoneKey], label):
			b.handles.Delete(label)
			hdl.Complete(backend.Metrics{EndedAt: time.Now()})
			hdl.Close()
		case slices.Contains(lists[store.FailedKey], label):
			b.handles.Delete(label)
			hdl.Fail(errors.New(RemoteFailureError{Label: label}), backend.Metrics{EndedAt: time.Now(), ExitCode: 1})
			hdl.Close()
		case slices.Contains(lists[store.TodoKey], label), slices.Contains(lists[store.LiveKey], label):
			hdl.misses = 0
		default:
			hdl.misses++

			if hdl.misses >= lostAfterPolls {
				b.logger.WithField(log.FieldKeyTask, label).Warnf("Task is in no list any more")
				b.handles.Delete(label)
				hdl.Ack()
				hdl.Close()
			}
		}

		return true
	})

	return nil
}

func (b *Backend) failAll(cause error) {
	b.handles.Range(func(label string, hdl *handle) bool {
		b.handles.Delete(label)
		hdl.Fail(errors.Errorf("lost contact with the store: %w", cause), backend.Metrics{EndedAt: time.Now()})
		hdl.Close()

		return true
	})
}
