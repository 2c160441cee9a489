package report

import (
	"github.com/mgutz/ansi"

	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// Colorizer is a colorizer for the run summary output.
type Colorizer struct {
	headingTitleColorizer func(string) string
	headingTaskColorizer  func(string) string
	successColorizer      func(string) string
	failureColorizer      func(string) string
	lostColorizer         func(string) string
	cancelColorizer       func(string) string
	notStartedColorizer   func(string) string
	durationColorizer     func(string) string
	paddingColorizer      func(string) string
}

// NewColorizer creates a new Colorizer.
func NewColorizer(shouldColor bool) *Colorizer {
	if !shouldColor {
		plain := func(s string) string { return s }

		return &Colorizer{
			headingTitleColorizer: plain,
			headingTaskColorizer:  plain,
			successColorizer:      plain,
			failureColorizer:      plain,
			lostColorizer:         plain,
			cancelColorizer:       plain,
			notStartedColorizer:   plain,
			durationColorizer:     plain,
			paddingColorizer:      plain,
		}
	}

	return &Colorizer{
		headingTitleColorizer: ansi.ColorFunc("yellow+bh"),
		headingTaskColorizer:  ansi.ColorFunc("white+bh"),
		successColorizer:      ansi.ColorFunc("green+bh"),
		failureColorizer:      ansi.ColorFunc("red+bh"),
		lostColorizer:         ansi.ColorFunc("magenta+bh"),
		cancelColorizer:       ansi.ColorFunc("yellow+bh"),
		notStartedColorizer:   ansi.ColorFunc("blue+bh"),
		durationColorizer:     ansi.ColorFunc("cyan+bh"),
		paddingColorizer:      ansi.ColorFunc("gray"),
	}
}

// colorDuration returns the duration in a human friendly form.
func (c *Colorizer) colorDuration(run *Run) string {
	if run.Ended.IsZero() {
		return c.durationColorizer("N/A")
	}

	return c.durationColorizer(task.HumanDuration(run.Duration()))
}
