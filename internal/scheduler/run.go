package scheduler

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/queue"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

// event is a backend signal tagged with the task it belongs to. closed is set instead of signal once the
// handle's signal channel is closed.
type event struct {
	handle backend.Handle
	signal backend.Signal
	closed bool
}

// run is the state of a single Run call.
type run struct {
	*Scheduler

	logger  log.Logger
	todo    *queue.Queue
	doneSet DoneSet
	events  chan event
	stop    chan struct{}
	// released holds records acknowledged before their terminal signal. They no longer hold a slot
	// but may still complete.
	released map[backend.Handle]*task.Record
	id       string
	live     []*task.Record
	done     []*task.Record
	lost     []*task.Record
}

func newRun(s *Scheduler, descs []*task.Descriptor) *run {
	id := uuid.NewString()

	records := make([]*task.Record, len(descs))
	for i, desc := range descs {
		records[i] = task.NewRecord(desc)
	}

	return &run{
		Scheduler: s,
		id:        id,
		logger:    s.logger.WithField(log.FieldKeyRunID, id),
		todo:      queue.NewQueue(records...),
		doneSet:   make(DoneSet, len(descs)),
		released:  make(map[backend.Handle]*task.Record),
		events:    make(chan event),
		stop:      make(chan struct{}),
		done:      make([]*task.Record, 0, len(descs)),
	}
}

func (r *run) execute(ctx context.Context) (done []*task.Record, err error) {
	r.notify(Event{Kind: RunStarted, Total: r.todo.Len()})

	defer func() {
		close(r.stop)
		r.notify(Event{Kind: RunFinished, Err: err})
	}()

	if err := r.fill(ctx); err != nil {
		r.abort()
		return nil, err
	}

	for {
		// Nothing is live, so the last fill had free slots and stopped only because every queued record is waiting.
		// Released records may still complete and unblock them.
		if len(r.live) == 0 && len(r.released) == 0 {
			switch {
			case r.todo.Empty():
				return r.done, nil
			case len(r.lost) > 0:
				return nil, errors.New(TaskLostError{Labels: task.Labels(r.lost), Waiting: r.todo.Labels()})
			default:
				return nil, errors.New(DeadlockDetectedError{Labels: r.todo.Labels()})
			}
		}

		select {
		case <-ctx.Done():
			r.abort()
			return nil, errors.New(context.Cause(ctx))
		case ev := <-r.events:
			if err := r.handle(ctx, ev); err != nil {
				r.abort()
				return nil, err
			}
		}
	}
}

// fill dispatches queued records while slots are free.
func (r *run) fill(ctx context.Context) error {
	r.todo.ClearWaiting()

	for r.todo.HasWork() && r.pool.HasSpace(len(r.live)) {
		rec := r.todo.PopFront()

		if !Satisfied(rec, r.doneSet) {
			r.todo.Requeue(rec)
			r.notify(Event{Kind: TaskWaiting, Record: rec})

			continue
		}

		handle, err := r.backend.Execute(ctx, rec.Descriptor)
		if err != nil {
			err = errors.New(UnresolvedReferenceError{Label: rec.Label(), Runnable: rec.Descriptor.Runnable, Err: err})
			r.notify(Event{Kind: TaskFailed, Record: rec, Err: err})

			return err
		}

		rec.State = task.StateLive
		rec.DispatchedAt = time.Now()
		rec.Handle = handle
		r.live = append(r.live, rec)

		r.notify(Event{Kind: TaskDispatched, Record: rec})

		go r.forward(handle)
	}

	return nil
}

// forward passes the signals of one handle to the run loop, then reports the end of the stream,
// until the handle closes or the run ends.
func (r *run) forward(handle backend.Handle) {
	for signal := range handle.Signals() {
		if !r.send(event{handle: handle, signal: signal}) {
			return
		}
	}

	r.send(event{handle: handle, closed: true})
}

func (r *run) send(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.stop:
		return false
	}
}

func (r *run) handle(ctx context.Context, ev event) error {
	if rec, ok := r.released[ev.handle]; ok {
		return r.handleReleased(ctx, ev, rec)
	}

	idx := slices.IndexFunc(r.live, func(rec *task.Record) bool {
		return rec.Handle == ev.handle
	})

	// Signals for records that already left live, such as the acknowledgement following a completion.
	if idx < 0 {
		if !ev.closed {
			r.logger.WithField(log.FieldKeyTask, ev.handle.Label()).Tracef("Ignoring %s signal", ev.signal.Kind)
		}

		return nil
	}

	rec := r.live[idx]

	if ev.closed {
		r.removeLive(idx)
		r.markLost(rec)

		return r.fill(ctx)
	}

	switch ev.signal.Kind {
	case backend.Completed:
		r.removeLive(idx)
		r.complete(rec)

		return r.fill(ctx)

	case backend.Failed:
		r.removeLive(idx)

		return r.fail(rec, ev.signal.Cause)

	case backend.CancelledAck:
		// The slot is free, but the outcome is still awaited.
		r.live = slices.Delete(r.live, idx, idx+1)
		r.released[ev.handle] = rec
		r.notify(Event{Kind: TaskReleased, Record: rec})

		return r.fill(ctx)
	}

	return nil
}

// handleReleased settles a record acknowledged before its terminal signal.
func (r *run) handleReleased(ctx context.Context, ev event, rec *task.Record) error {
	if !ev.closed && !ev.signal.Kind.IsTerminal() {
		return nil
	}

	delete(r.released, ev.handle)
	rec.Handle = nil

	switch {
	case ev.closed:
		r.markLost(rec)
	case ev.signal.Kind == backend.Failed:
		return r.fail(rec, ev.signal.Cause)
	default:
		r.complete(rec)
	}

	return r.fill(ctx)
}

func (r *run) complete(rec *task.Record) {
	rec.State = task.StateDone
	rec.CompletedAt = time.Now()
	r.done = append(r.done, rec)
	r.doneSet.Add(rec.Label())

	r.notify(Event{Kind: TaskCompleted, Record: rec})
}

func (r *run) fail(rec *task.Record, cause error) error {
	err := errors.New(BackendFailureError{Label: rec.Label(), Cause: cause})
	r.notify(Event{Kind: TaskFailed, Record: rec, Err: err})

	return err
}

// markLost records a task whose signal stream ended without a terminal signal.
func (r *run) markLost(rec *task.Record) {
	r.lost = append(r.lost, rec)
	r.notify(Event{Kind: TaskLost, Record: rec})
}

func (r *run) removeLive(idx int) {
	r.live[idx].Handle = nil
	r.live = slices.Delete(r.live, idx, idx+1)
}

// abort asks the backend to cancel every live or released record. It does not wait for acknowledgements.
func (r *run) abort() {
	for _, rec := range r.live {
		r.cancel(rec)
	}

	for _, rec := range r.released {
		r.cancel(rec)
	}
}

func (r *run) cancel(rec *task.Record) {
	handle, ok := rec.Handle.(backend.Handle)
	if !ok {
		return
	}

	r.notify(Event{Kind: TaskCancelled, Record: rec})
	r.backend.Cancel(handle)
}

func (r *run) notify(ev Event) {
	ev.RunID = r.id
	ev.Time = time.Now()

	for _, obs := range r.observers {
		obs.Observe(ev)
	}
}
