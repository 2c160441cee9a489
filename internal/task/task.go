// Package task holds the data model shared by the catalog, the scheduler and the execution backends:
// the immutable Descriptor submitted by callers and the mutable Record the scheduler keeps per task.
package task

import (
	"fmt"
	"slices"
	"time"
)

// Descriptor is the immutable description of one unit of work.
type Descriptor struct {
	// Options are passed through to the backend untouched.
	Options map[string]string
	// Label identifies the task within a run.
	Label string
	// Runnable references the executable work; its meaning is up to the backend.
	Runnable string
	// Deps lists the labels that must be done before this task is dispatched.
	Deps []string
	Args []string
}

// HasDeps returns true if the descriptor declares at least one dependency.
func (desc *Descriptor) HasDeps() bool {
	return len(desc.Deps) > 0
}

// Clone returns a deep copy of the descriptor.
func (desc *Descriptor) Clone() *Descriptor {
	clone := &Descriptor{
		Label:    desc.Label,
		Runnable: desc.Runnable,
		Deps:     slices.Clone(desc.Deps),
		Args:     slices.Clone(desc.Args),
	}

	if desc.Options != nil {
		clone.Options = make(map[string]string, len(desc.Options))
		for key, val := range desc.Options {
			clone.Options[key] = val
		}
	}

	return clone
}

func (desc *Descriptor) String() string {
	return desc.Label
}

// DefaultLabel returns the label given to the descriptor at position index when it declares none.
func DefaultLabel(index int) string {
	return fmt.Sprintf("task_%d", index)
}

// State is the scheduling state of a Record.
type State int

const (
	StatePending State = iota
	StateWaiting
	StateLive
	StateDone
)

func (state State) String() string {
	switch state {
	case StatePending:
		return "pending"
	case StateWaiting:
		return "waiting"
	case StateLive:
		return "live"
	case StateDone:
		return "done"
	}

	return fmt.Sprintf("state(%d)", int(state))
}

// Record is the scheduler's mutable view of a descriptor's progress.
type Record struct {
	DispatchedAt time.Time
	CompletedAt  time.Time
	// Handle is set only while the record is live. Its concrete type belongs to the backend.
	Handle     any
	Descriptor *Descriptor
	State      State
}

// NewRecord creates a pending record for the descriptor.
func NewRecord(desc *Descriptor) *Record {
	return &Record{
		Descriptor: desc,
		State:      StatePending,
	}
}

// Label returns the label of the underlying descriptor.
func (rec *Record) Label() string {
	return rec.Descriptor.Label
}

// Deps returns the dependency labels of the underlying descriptor.
func (rec *Record) Deps() []string {
	return rec.Descriptor.Deps
}

// Duration returns the time spent live, or zero if the record is not done.
func (rec *Record) Duration() time.Duration {
	if rec.DispatchedAt.IsZero() || rec.CompletedAt.IsZero() {
		return 0
	}

	return rec.CompletedAt.Sub(rec.DispatchedAt)
}

func (rec *Record) String() string {
	return fmt.Sprintf("%s(%s)", rec.Label(), rec.State)
}

// Labels returns the labels of the given records in order.
func Labels(records []*Record) []string {
	labels := make([]string, len(records))
	for i, rec := range records {
		labels[i] = rec.Label()
	}

	return labels
}
