package scheduler

import (
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// DoneSet is the set of labels that have reached done.
type DoneSet map[string]struct{}

// Add marks the label as done.
func (set DoneSet) Add(label string) {
	set[label] = struct{}{}
}

// Contains returns true if the label is done.
func (set DoneSet) Contains(label string) bool {
	_, ok := set[label]
	return ok
}

// Satisfied returns true if every dependency of rec is done.
// Unknown labels are never done, so a record depending on one is never satisfied.
func Satisfied(rec *task.Record, done DoneSet) bool {
	for _, dep := range rec.Deps() {
		if !done.Contains(dep) {
			return false
		}
	}

	return true
}
