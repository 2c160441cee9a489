package scheduler

import (
	"time"

	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

// EventKind is the kind of a lifecycle event.
type EventKind byte

const (
	RunStarted EventKind = iota + 1
	TaskWaiting
	TaskDispatched
	TaskCompleted
	TaskFailed
	TaskLost
	TaskCancelled
	RunFinished
	// TaskReleased is sent when a task is acknowledged before its outcome. Its slot is freed, and a
	// TaskCompleted, TaskFailed or TaskLost event follows.
	TaskReleased
)

var eventKindNames = map[EventKind]string{
	RunStarted:     "run_started",
	TaskWaiting:    "task_waiting",
	TaskDispatched: "task_dispatched",
	TaskCompleted:  "task_completed",
	TaskFailed:     "task_failed",
	TaskLost:       "task_lost",
	TaskCancelled:  "task_cancelled",
	RunFinished:    "run_finished",
	TaskReleased:   "task_released",
}

func (kind EventKind) String() string {
	if name, ok := eventKindNames[kind]; ok {
		return name
	}

	return "unknown"
}

// Event is a lifecycle event of a run. Record is nil for the run events.
// Observers are called from the scheduling goroutine and must not retain or modify Record.
type Event struct {
	Time   time.Time
	Err    error
	Record *task.Record
	RunID  string
	Kind   EventKind
	// Total is the number of tasks in the run, set on RunStarted.
	Total int
}

// Label returns the label of the event's record, if any.
func (ev Event) Label() string {
	if ev.Record == nil {
		return ""
	}

	return ev.Record.Label()
}

// Observer receives lifecycle events. Implementations must return quickly.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// Observe implements Observer.
func (fn ObserverFunc) Observe(ev Event) {
	fn(ev)
}

// LogObserver writes one log line per lifecycle event.
type LogObserver struct {
	logger log.Logger
}

// NewLogObserver returns an observer logging to the given logger.
func NewLogObserver(logger log.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// Observe implements Observer.
func (obs *LogObserver) Observe(ev Event) {
	logger := obs.logger.WithField(log.FieldKeyRunID, ev.RunID)
	if ev.Record != nil {
		logger = logger.WithField(log.FieldKeyTask, ev.Label())
	}

	switch ev.Kind {
	case RunStarted:
		logger.Debugf("Scheduling %d tasks", ev.Total)
	case TaskWaiting:
		logger.Tracef("Waiting on dependencies %v", ev.Record.Deps())
	case TaskDispatched:
		logger.Debugf("Dispatched")
	case TaskCompleted:
		logger.Infof("Completed in %s", task.HumanDuration(ev.Record.Duration()))
	case TaskFailed:
		logger.WithError(ev.Err).Errorf("Failed")
	case TaskReleased:
		logger.Debugf("Acknowledged before its outcome, slot released")
	case TaskLost:
		logger.Warnf("Lost by the backend before completing")
	case TaskCancelled:
		logger.Debugf("Cancellation requested")
	case RunFinished:
		if ev.Err != nil {
			logger.Debugf("Run aborted: %v", ev.Err)
			return
		}

		logger.Debugf("Run finished")
	}
}
