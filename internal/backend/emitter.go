package backend

import (
	"sync"

	"github.com/google/uuid"
)

// signalBuffer holds one terminal signal and one acknowledgement, so emitting never blocks.
const signalBuffer = 2

// Emitter is a Handle implementation shared by the backends. It enforces the signal contract: the first
// terminal signal wins, later terminal signals are dropped, at most one CancelledAck is delivered,
// and the channel is closed once both have been sent or Close is called.
type Emitter struct {
	signals    chan Signal
	id         string
	label      string
	mu         sync.Mutex
	terminated bool
	acked      bool
	closed     bool
}

// NewEmitter returns an emitter for the task with the given label and a fresh random id.
func NewEmitter(label string) *Emitter {
	return &Emitter{
		id:      uuid.NewString(),
		label:   label,
		signals: make(chan Signal, signalBuffer),
	}
}

// ID implements Handle.
func (emitter *Emitter) ID() string {
	return emitter.id
}

// Label implements Handle.
func (emitter *Emitter) Label() string {
	return emitter.label
}

// Signals implements Handle.
func (emitter *Emitter) Signals() <-chan Signal {
	return emitter.signals
}

// Terminated returns true once a terminal signal has been emitted.
func (emitter *Emitter) Terminated() bool {
	emitter.mu.Lock()
	defer emitter.mu.Unlock()

	return emitter.terminated
}

// Complete emits Completed. Returns false if the task had already terminated.
func (emitter *Emitter) Complete(metrics Metrics) bool {
	return emitter.Emit(Signal{Kind: Completed, Metrics: metrics})
}

// Fail emits Failed with the given cause. Returns false if the task had already terminated.
func (emitter *Emitter) Fail(cause error, metrics Metrics) bool {
	return emitter.Emit(Signal{Kind: Failed, Cause: cause, Metrics: metrics})
}

// Ack emits CancelledAck. Returns false if an acknowledgement was already sent.
func (emitter *Emitter) Ack() bool {
	return emitter.Emit(Signal{Kind: CancelledAck})
}

// Emit sends the signal unless the contract forbids it, and reports whether it was sent.
func (emitter *Emitter) Emit(signal Signal) bool {
	emitter.mu.Lock()
	defer emitter.mu.Unlock()

	if emitter.closed {
		return false
	}

	switch {
	case signal.Kind.IsTerminal():
		if emitter.terminated {
			return false
		}

		emitter.terminated = true
	case signal.Kind == CancelledAck:
		if emitter.acked {
			return false
		}

		emitter.acked = true
	default:
		return false
	}

	emitter.signals <- signal

	if emitter.terminated && emitter.acked {
		emitter.closeLocked()
	}

	return true
}

// Close closes the signal channel. Signals emitted afterwards are dropped.
func (emitter *Emitter) Close() {
	emitter.mu.Lock()
	defer emitter.mu.Unlock()

	emitter.closeLocked()
}

func (emitter *Emitter) closeLocked() {
	if emitter.closed {
		return
	}

	emitter.closed = true
	close(emitter.signals)
}
