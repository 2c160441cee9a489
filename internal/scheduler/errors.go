package scheduler

import (
	"fmt"
	"strings"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

// ErrAlreadyRunning is returned by Run when the scheduler is already executing another run.
var ErrAlreadyRunning = errors.New("scheduler is already running")

// ErrNoBackend is returned by Run when the scheduler was built without a backend.
var ErrNoBackend = errors.New("no execution backend configured")

// CatalogError is returned when tasks cannot be loaded, or for a malformed set of descriptors,
// such as two tasks sharing a label. Source names the file the problem was found in, if any.
type CatalogError struct {
	Err    error
	Source string
	Label  string
	Reason string
}

func (err CatalogError) Error() string {
	msg := "invalid task catalog"

	if err.Source != "" {
		msg += " " + err.Source
	}

	if err.Label != "" {
		msg += ": task " + err.Label
	}

	if err.Reason != "" {
		msg += ": " + err.Reason
	}

	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}

	return msg
}

func (err CatalogError) Unwrap() error {
	return err.Err
}

// MissingDependencyError is returned when a task depends on a label that no task in the run carries.
type MissingDependencyError struct {
	Label      string
	Dependency string
}

func (err MissingDependencyError) Error() string {
	return fmt.Sprintf("task %s depends on %s, which is not part of the run", err.Label, err.Dependency)
}

// UnresolvedReferenceError is returned when the backend cannot resolve or start the runnable of a task.
type UnresolvedReferenceError struct {
	Err      error
	Label    string
	Runnable string
}

func (err UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("task %s: cannot run %q: %v", err.Label, err.Runnable, err.Err)
}

func (err UnresolvedReferenceError) Unwrap() error {
	return err.Err
}

// BackendFailureError is returned when a task fails. The run stops at the first failure.
type BackendFailureError struct {
	Cause error
	Label string
}

func (err BackendFailureError) Error() string {
	return fmt.Sprintf("task %s failed: %v", err.Label, err.Cause)
}

func (err BackendFailureError) Unwrap() error {
	return err.Cause
}

// DeadlockDetectedError is returned when no queued task can ever become ready.
// Cycle holds the dependency cycle when one was found, closed on its first label.
type DeadlockDetectedError struct {
	Labels []string
	Cycle  []string
}

func (err DeadlockDetectedError) Error() string {
	if len(err.Cycle) > 0 {
		return "deadlock detected: dependency cycle " + strings.Join(err.Cycle, " -> ")
	}

	return "deadlock detected: tasks waiting on dependencies that will never finish: " + strings.Join(err.Labels, ", ")
}

// TaskLostError is returned when the backend stopped tracking tasks that never completed and queued tasks
// can no longer run. Waiting lists those queued tasks. A run with lost tasks and nothing left queued succeeds.
type TaskLostError struct {
	Labels  []string
	Waiting []string
}

func (err TaskLostError) Error() string {
	msg := "tasks lost by the backend before completing: " + strings.Join(err.Labels, ", ")
	if len(err.Waiting) > 0 {
		msg += "; never started: " + strings.Join(err.Waiting, ", ")
	}

	return msg
}
