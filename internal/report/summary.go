package report

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gruntwork-io/taskgrunt/internal/task"
)

const (
	prefix              = "   "
	taskPrefixMult      = 2
	runSummaryHeader    = "❯❯ Run Summary"
	successLabel        = "Succeeded"
	failureLabel        = "Failed"
	lostLabel           = "Lost"
	cancelLabel         = "Cancelled"
	notStartedLabel     = "Not Started"
	separatorLineLength = 28
	labelColumnWidth    = 16
)

// ansiRegex is used to remove ANSI escape codes from strings.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Summary formats data from a report for output as a summary.
type Summary struct {
	firstRunStart        *time.Time
	lastRunEnd           *time.Time
	runs                 []*Run
	TasksSucceeded       int
	TasksFailed          int
	TasksLost            int
	TasksCancelled       int
	TasksNotStarted      int
	total                int
	shouldColor          bool
	showTaskLevelSummary bool
}

// Summarize returns a summary of the report.
func (r *Report) Summarize() *Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &Summary{
		shouldColor:          r.shouldColor,
		showTaskLevelSummary: r.showTaskLevelSummary,
		runs:                 slices.Clone(r.Runs),
		total:                max(r.total, len(r.Runs)),
	}

	for _, run := range r.Runs {
		summary.Update(run)
	}

	summary.TasksNotStarted = summary.total - len(summary.runs)

	return summary
}

// Update accounts for a single run.
func (s *Summary) Update(run *Run) {
	run.mu.RLock()
	defer run.mu.RUnlock()

	switch run.Result {
	case ResultSucceeded:
		s.TasksSucceeded++
	case ResultFailed:
		s.TasksFailed++
	case ResultLost:
		s.TasksLost++
	case ResultCancelled:
		s.TasksCancelled++
	}

	if s.firstRunStart == nil || run.Started.Before(*s.firstRunStart) {
		s.firstRunStart = &run.Started
	}

	if !run.Ended.IsZero() && (s.lastRunEnd == nil || run.Ended.After(*s.lastRunEnd)) {
		s.lastRunEnd = &run.Ended
	}
}

// TotalTasks returns the number of tasks of the summarized runs, dispatched or not.
func (s *Summary) TotalTasks() int {
	return s.total
}

// TotalDuration returns the time between the first dispatch and the last end.
func (s *Summary) TotalDuration() time.Duration {
	if s.firstRunStart == nil || s.lastRunEnd == nil {
		return 0
	}

	return s.lastRunEnd.Sub(*s.firstRunStart)
}

// WriteSummary writes the summary to a writer. Nothing is written when the report is empty.
func (r *Report) WriteSummary(w io.Writer) error {
	summary := r.Summarize()

	if summary.TotalTasks() == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	if err := summary.Write(w); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w)

	return err
}

// Write writes the summary to a writer.
func (s *Summary) Write(w io.Writer) error {
	colorizer := NewColorizer(s.shouldColor)

	header := fmt.Sprintf("%s  %s  %s",
		colorizer.headingTitleColorizer(runSummaryHeader),
		colorizer.headingTaskColorizer(fmt.Sprintf("%d tasks", s.TotalTasks())),
		colorizer.durationColorizer(task.HumanDuration(s.TotalDuration())),
	)
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s%s\n", prefix, strings.Repeat("─", separatorLineLength)); err != nil {
		return err
	}

	categories := []struct {
		colorizer func(string) string
		result    Result
		label     string
		count     int
	}{
		{colorizer: colorizer.successColorizer, result: ResultSucceeded, label: successLabel, count: s.TasksSucceeded},
		{colorizer: colorizer.failureColorizer, result: ResultFailed, label: failureLabel, count: s.TasksFailed},
		{colorizer: colorizer.lostColorizer, result: ResultLost, label: lostLabel, count: s.TasksLost},
		{colorizer: colorizer.cancelColorizer, result: ResultCancelled, label: cancelLabel, count: s.TasksCancelled},
		{colorizer: colorizer.notStartedColorizer, label: notStartedLabel, count: s.TasksNotStarted},
	}

	for _, category := range categories {
		if category.count <= 0 {
			continue
		}

		label := category.colorizer(category.label)
		if _, err := fmt.Fprintf(w, "%s%s%s%s\n", prefix, label, s.padding(label, colorizer), strconv.Itoa(category.count)); err != nil {
			return err
		}

		if !s.showTaskLevelSummary || category.result == "" {
			continue
		}

		if err := s.writeTaskDurations(w, category.result, colorizer); err != nil {
			return err
		}
	}

	return nil
}

// writeTaskDurations lists the runs with the given result, longest first.
func (s *Summary) writeTaskDurations(w io.Writer, result Result, colorizer *Colorizer) error {
	var runs []*Run

	for _, run := range s.runs {
		if run.Result == result {
			runs = append(runs, run)
		}
	}

	slices.SortStableFunc(runs, func(a, b *Run) int {
		return int(b.Duration() - a.Duration())
	})

	width := 0
	for _, run := range runs {
		width = max(width, len(run.Label))
	}

	for _, run := range runs {
		padding := colorizer.paddingColorizer(strings.Repeat(" ", width-len(run.Label)+2))

		if _, err := fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(prefix, taskPrefixMult), run.Label, padding, colorizer.colorDuration(run)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Summary) padding(label string, colorizer *Colorizer) string {
	needed := max(2, labelColumnWidth-visualLength(label))

	return colorizer.paddingColorizer(strings.Repeat(" ", needed))
}

// visualLength calculates the visual length of a string by removing ANSI escape codes.
func visualLength(text string) int {
	return len([]rune(ansiRegex.ReplaceAllString(text, "")))
}
