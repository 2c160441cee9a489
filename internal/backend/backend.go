// Package backend defines the contract between the scheduler and the systems that actually run tasks.
//
// A Backend starts a task and hands back a Handle. The handle reports what happened to the task through a
// stream of signals: exactly one terminal signal, Completed or Failed, and at most one CancelledAck, which
// may arrive before or after the terminal signal. The stream is closed after the last signal.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// Backend runs tasks on behalf of the scheduler.
type Backend interface {
	// Execute starts the task described by desc. An error means the runnable could not be resolved or started,
	// in which case no handle is returned and no signals will follow.
	Execute(ctx context.Context, desc *task.Descriptor) (Handle, error)
	// Cancel asks the backend to stop the task. It is best effort and must not block.
	Cancel(handle Handle)
}

// Handle refers to one dispatched task.
type Handle interface {
	ID() string
	Label() string
	Signals() <-chan Signal
}

// SignalKind is the kind of event reported by a handle.
type SignalKind byte

const (
	// Completed means the task finished successfully.
	Completed SignalKind = iota + 1
	// Failed means the task finished unsuccessfully, or could not be observed any more.
	Failed
	// CancelledAck means the backend stopped tracking the task, normally after a Cancel.
	CancelledAck
)

func (kind SignalKind) String() string {
	switch kind {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case CancelledAck:
		return "cancelled"
	}

	return fmt.Sprintf("signal(%d)", kind)
}

// IsTerminal returns true for the kinds that end a task.
func (kind SignalKind) IsTerminal() bool {
	return kind == Completed || kind == Failed
}

// Metrics describes a finished task run as seen by the backend.
type Metrics struct {
	StartedAt time.Time
	EndedAt   time.Time
	ExitCode  int
}

// Duration returns the time between start and end.
func (metrics Metrics) Duration() time.Duration {
	if metrics.StartedAt.IsZero() || metrics.EndedAt.IsZero() {
		return 0
	}

	return metrics.EndedAt.Sub(metrics.StartedAt)
}

// Signal is a single event reported by a handle.
type Signal struct {
	Cause   error
	Metrics Metrics
	Kind    SignalKind
}

func (signal Signal) String() string {
	if signal.Cause != nil {
		return fmt.Sprintf("%s: %v", signal.Kind, signal.Cause)
	}

	return signal.Kind.String()
}
