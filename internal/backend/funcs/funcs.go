// Package funcs implements a backend that runs Go functions registered by name inside the scheduler process.
package funcs

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// Runnable is a unit of work that can be executed in-process.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc adapts an ordinary function to the Runnable interface.
type RunnableFunc func(ctx context.Context) error

// Run implements Runnable.
func (fn RunnableFunc) Run(ctx context.Context) error {
	return fn(ctx)
}

// UnknownRunnableError is returned when a descriptor references a name nothing was registered under.
type UnknownRunnableError struct {
	Name string
}

func (err UnknownRunnableError) Error() string {
	return fmt.Sprintf("no runnable registered as %q", err.Name)
}

// Backend runs registered runnables in goroutines. It is safe for concurrent use.
type Backend struct {
	registry *xsync.MapOf[string, Runnable]
}

// New returns a backend with an empty registry.
func New() *Backend {
	return &Backend{
		registry: xsync.NewMapOf[string, Runnable](),
	}
}

// Register makes the runnable available under the given name, replacing any previous registration.
func (b *Backend) Register(name string, runnable Runnable) *Backend {
	b.registry.Store(name, runnable)
	return b
}

// RegisterFunc is a shorthand for Register(name, RunnableFunc(fn)).
func (b *Backend) RegisterFunc(name string, fn func(ctx context.Context) error) *Backend {
	return b.Register(name, RunnableFunc(fn))
}

// Lookup returns the runnable registered under the given name.
func (b *Backend) Lookup(name string) (Runnable, bool) {
	return b.registry.Load(name)
}

type funcHandle struct {
	*backend.Emitter

	cancel context.CancelCauseFunc
}

// Execute implements backend.Backend. The descriptor's Runnable is the registered name.
func (b *Backend) Execute(ctx context.Context, desc *task.Descriptor) (backend.Handle, error) {
	runnable, ok := b.Lookup(desc.Runnable)
	if !ok {
		return nil, errors.New(UnknownRunnableError{Name: desc.Runnable})
	}

	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))

	hdl := &funcHandle{
		Emitter: backend.NewEmitter(desc.Label),
		cancel:  cancel,
	}

	go func() {
		defer hdl.Close()
		defer cancel(nil)

		metrics := backend.Metrics{StartedAt: time.Now()}
		err := run(runCtx, runnable)
		metrics.EndedAt = time.Now()

		if errors.Is(context.Cause(runCtx), errCancelled) {
			hdl.Ack()
			hdl.Fail(context.Canceled, metrics)

			return
		}

		if err != nil {
			metrics.ExitCode = 1
			hdl.Fail(err, metrics)

			return
		}

		hdl.Complete(metrics)
	}()

	return hdl, nil
}

var errCancelled = errors.New("cancelled by scheduler")

// Cancel implements backend.Backend. The context passed to the runnable is cancelled.
func (b *Backend) Cancel(handle backend.Handle) {
	if hdl, ok := handle.(*funcHandle); ok {
		hdl.cancel(errCancelled)
	}
}

func run(ctx context.Context, runnable Runnable) (err error) {
	defer errors.Recover(func(cause error) {
		err = cause
	})

	return runnable.Run(ctx)
}
