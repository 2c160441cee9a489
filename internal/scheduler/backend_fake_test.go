package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// behavior scripts what the fake backend does with a runnable.
type behavior struct {
	err        error
	delay      time.Duration
	unresolved bool
	fail       bool
	lose       bool
	// ack sends CancelledAck before the outcome.
	ack bool
	// hang keeps the task live until it is cancelled.
	hang bool
}

type fakeHandle struct {
	*backend.Emitter

	cancel chan struct{}
	once   sync.Once
}

// fakeBackend runs nothing. It replays scripted signals and records what the scheduler asked for.
type fakeBackend struct {
	behaviors  map[string]behavior
	dispatched []string
	cancelled  []string
	mu         sync.Mutex
	live       int
	maxLive    int
}

func newFakeBackend(behaviors map[string]behavior) *fakeBackend {
	if behaviors == nil {
		behaviors = map[string]behavior{}
	}

	return &fakeBackend{behaviors: behaviors}
}

func (b *fakeBackend) Execute(_ context.Context, desc *task.Descriptor) (backend.Handle, error) {
	bhv := b.behaviors[desc.Label]
	if bhv.unresolved {
		return nil, errors.New("no such runnable")
	}

	b.mu.Lock()
	b.dispatched = append(b.dispatched, desc.Label)
	b.live++
	b.maxLive = max(b.maxLive, b.live)
	b.mu.Unlock()

	hdl := &fakeHandle{
		Emitter: backend.NewEmitter(desc.Label),
		cancel:  make(chan struct{}),
	}

	go func() {
		defer hdl.Close()

		var timer <-chan time.Time
		if !bhv.hang {
			timer = time.After(bhv.delay)
		}

		select {
		case <-timer:
		case <-hdl.cancel:
			b.finish()
			hdl.Ack()
			hdl.Fail(context.Canceled, backend.Metrics{})

			return
		}

		b.finish()

		if bhv.ack {
			hdl.Ack()
		}

		switch {
		case bhv.lose:
			hdl.Ack()
		case bhv.fail:
			hdl.Fail(bhv.err, backend.Metrics{ExitCode: 1})
		default:
			hdl.Complete(backend.Metrics{})
		}
	}()

	return hdl, nil
}

func (b *fakeBackend) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.live--
}

func (b *fakeBackend) Cancel(handle backend.Handle) {
	hdl := handle.(*fakeHandle)

	b.mu.Lock()
	b.cancelled = append(b.cancelled, handle.Label())
	b.mu.Unlock()

	hdl.once.Do(func() { close(hdl.cancel) })
}

func (b *fakeBackend) Dispatched() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.dispatched...)
}

func (b *fakeBackend) Cancelled() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string{}, b.cancelled...)
}

func (b *fakeBackend) MaxLive() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.maxLive
}
