// Package report collects the outcome of every task of a run and renders it as a summary or a report file.
package report

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
)

// Report captures data for a report/summary. It implements scheduler.Observer.
type Report struct {
	format               Format
	runID                string
	failedTask           string
	Runs                 []*Run
	total                int
	mu                   sync.RWMutex
	shouldColor          bool
	showTaskLevelSummary bool
}

// Run captures the outcome of a single task.
type Run struct {
	Started  time.Time
	Ended    time.Time
	Reason   *Reason
	Cause    *Cause
	Label    string
	Runnable string
	Result   Result
	mu       sync.RWMutex
}

// Result captures the result of a run.
type Result string

// Reason captures the reason for a result.
type Reason string

// Cause captures the label of the task that caused a result.
type Cause string

// Format is the file format of a report.
type Format string

const (
	ResultSucceeded Result = "succeeded"
	ResultFailed    Result = "failed"
	ResultLost      Result = "lost"
	ResultCancelled Result = "cancelled"
)

const (
	ReasonRunError   Reason = "run error"
	ReasonTaskLost   Reason = "lost by backend"
	ReasonRunAborted Reason = "run aborted"
)

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Formats lists the supported report formats.
var Formats = []Format{FormatCSV, FormatJSON}

var (
	// ErrRunAlreadyExists is returned when a run already exists in the report.
	ErrRunAlreadyExists = errors.New("run already exists")

	// ErrRunNotFound is returned when a run is not found in the report.
	ErrRunNotFound = errors.New("run not found")
)

// ParseFormat returns the format for the given name.
func ParseFormat(name string) (Format, error) {
	format := Format(name)
	if slices.Contains(Formats, format) {
		return format, nil
	}

	return "", errors.Errorf("unsupported report format %q, supported formats: %v", name, Formats)
}

// Option configures the Report.
type Option func(*Report)

// WithFormat sets the format used by WriteToFile.
func WithFormat(format Format) Option {
	return func(r *Report) {
		r.format = format
	}
}

// WithDisableColor disables colors in the summary.
func WithDisableColor() Option {
	return func(r *Report) {
		r.shouldColor = false
	}
}

// WithShowTaskLevelSummary lists every task with its duration in the summary.
func WithShowTaskLevelSummary() Option {
	return func(r *Report) {
		r.showTaskLevelSummary = true
	}
}

// NewReport creates a new report.
func NewReport(opts ...Option) *Report {
	r := &Report{
		Runs:        make([]*Run, 0),
		format:      FormatCSV,
		shouldColor: true,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewRun creates a new run started now.
func NewRun(label string) *Run {
	return &Run{
		Label:   label,
		Started: time.Now(),
	}
}

// AddRun adds a run to the report.
// If the run already exists, it returns the ErrRunAlreadyExists error.
func (r *Report) AddRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getRun(run.Label) != nil {
		return errors.Errorf("%w: %s", ErrRunAlreadyExists, run.Label)
	}

	r.Runs = append(r.Runs, run)

	return nil
}

// GetRun returns a run from the report, or ErrRunNotFound.
func (r *Report) GetRun(label string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if run := r.getRun(label); run != nil {
		return run, nil
	}

	return nil, errors.Errorf("%w: %s", ErrRunNotFound, label)
}

func (r *Report) getRun(label string) *Run {
	for _, run := range r.Runs {
		if run.Label == label {
			return run
		}
	}

	return nil
}

// EndRun ends a run.
// If the run does not exist, it returns the ErrRunNotFound error.
// By default, the run is assumed to have succeeded. To change this, pass WithResult to the function.
func (r *Report) EndRun(label string, endOptions ...EndOption) error {
	run, err := r.GetRun(label)
	if err != nil {
		return err
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	run.Ended = time.Now()
	run.Result = ResultSucceeded

	for _, endOption := range endOptions {
		endOption(run)
	}

	return nil
}

// EndOption are optional configurations for ending a run.
type EndOption func(*Run)

// WithResult sets the result of a run.
func WithResult(result Result) EndOption {
	return func(run *Run) {
		run.Result = result
	}
}

// WithReason sets the reason of a run.
func WithReason(reason Reason) EndOption {
	return func(run *Run) {
		run.Reason = &reason
	}
}

// WithCauseFailedTask sets the cause of a run to the label of the task whose failure aborted the run.
func WithCauseFailedTask(label string) EndOption {
	return func(run *Run) {
		if label == "" {
			return
		}

		cause := Cause(label)
		run.Cause = &cause
	}
}

// WithEnded overrides the end time of a run.
func WithEnded(ended time.Time) EndOption {
	return func(run *Run) {
		run.Ended = ended
	}
}

// Observe implements scheduler.Observer.
func (r *Report) Observe(ev scheduler.Event) {
	switch ev.Kind {
	case scheduler.RunStarted:
		r.mu.Lock()
		r.runID = ev.RunID
		r.total += ev.Total
		r.mu.Unlock()

		return
	case scheduler.RunFinished, scheduler.TaskWaiting, scheduler.TaskReleased:
		return
	}

	if ev.Record == nil {
		return
	}

	label := ev.Label()

	switch ev.Kind {
	case scheduler.TaskDispatched:
		run := NewRun(label)
		run.Started = ev.Time
		run.Runnable = ev.Record.Descriptor.Runnable

		// A scheduler reused for several runs dispatches the same label again.
		if err := r.AddRun(run); err != nil {
			return
		}
	case scheduler.TaskCompleted:
		_ = r.EndRun(label, WithEnded(ev.Time))
	case scheduler.TaskFailed:
		r.mu.Lock()
		if r.failedTask == "" {
			r.failedTask = label
		}
		r.mu.Unlock()

		// A task rejected before dispatch has no run yet.
		if _, err := r.GetRun(label); err != nil {
			run := NewRun(label)
			run.Started = ev.Time
			run.Runnable = ev.Record.Descriptor.Runnable
			_ = r.AddRun(run)
		}

		_ = r.EndRun(label, WithEnded(ev.Time), WithResult(ResultFailed), WithReason(ReasonRunError))
	case scheduler.TaskLost:
		_ = r.EndRun(label, WithEnded(ev.Time), WithResult(ResultLost), WithReason(ReasonTaskLost))
	case scheduler.TaskCancelled:
		r.mu.RLock()
		failedTask := r.failedTask
		r.mu.RUnlock()

		_ = r.EndRun(label, WithEnded(ev.Time), WithResult(ResultCancelled), WithReason(ReasonRunAborted), WithCauseFailedTask(failedTask))
	}
}

// RunID returns the id of the last observed run.
func (r *Report) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.runID
}

// SortRuns orders the runs by start time, then by label.
func (r *Report) SortRuns() {
	slices.SortStableFunc(r.Runs, func(a, b *Run) int {
		if c := a.Started.Compare(b.Started); c != 0 {
			return c
		}

		switch {
		case a.Label < b.Label:
			return -1
		case a.Label > b.Label:
			return 1
		}

		return 0
	})
}

func (run *Run) String() string {
	return fmt.Sprintf("%s(%s)", run.Label, run.Result)
}

// Duration returns how long the run took, or zero if it has not ended.
func (run *Run) Duration() time.Duration {
	if run.Ended.IsZero() {
		return 0
	}

	return run.Ended.Sub(run.Started)
}
