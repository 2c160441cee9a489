// Package queue provides the `todo` run queue of the scheduler.
// The queue is a FIFO of task records with requeue at the tail: a record whose dependencies are not yet
// satisfied is marked as waiting and moved behind every other record, so the dispatch loop never spins on it.
//
// The package also provides RunOrder, which sorts descriptors into a dependency-respecting order.
// The algorithm for building the order is as follows:
// 1. Given a list of descriptors, start with an empty list.
// 2. For each descriptor, add it to the list as close to the front as possible.
// 3. When a descriptor is added, check to see if any entry in the list depends on it in its ancestry.
// 4. If such an entry is found, add the descriptor in front of that entry.
// 5. Repeat step 2 until all descriptors are in the list.
package queue

import (
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// Queue holds records that are pending or waiting on their dependencies.
type Queue struct {
	entries []*task.Record
}

// NewQueue creates a queue seeded with the given records in order.
func NewQueue(records ...*task.Record) *Queue {
	entries := make([]*task.Record, 0, len(records))
	entries = append(entries, records...)

	return &Queue{entries: entries}
}

// Entries returns the queue entries. Used for testing.
func (q *Queue) Entries() []*task.Record {
	return q.entries
}

// Len returns the number of queued records.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Empty returns true if nothing is queued.
func (q *Queue) Empty() bool {
	return len(q.entries) == 0
}

// PushBack appends the record to the tail of the queue.
func (q *Queue) PushBack(rec *task.Record) {
	q.entries = append(q.entries, rec)
}

// PopFront removes and returns the record at the front of the queue, or nil if the queue is empty.
func (q *Queue) PopFront() *task.Record {
	if len(q.entries) == 0 {
		return nil
	}

	rec := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]

	return rec
}

// Requeue marks the record as waiting and moves it to the tail of the queue.
func (q *Queue) Requeue(rec *task.Record) {
	rec.State = task.StateWaiting
	q.PushBack(rec)
}

// ClearWaiting reverts every waiting record back to pending, since a dependency may have finished in the meantime.
func (q *Queue) ClearWaiting() {
	for _, rec := range q.entries {
		if rec.State == task.StateWaiting {
			rec.State = task.StatePending
		}
	}
}

// HasWork returns true if at least one queued record has not been found waiting since the last ClearWaiting.
func (q *Queue) HasWork() bool {
	for _, rec := range q.entries {
		if rec.State != task.StateWaiting {
			return true
		}
	}

	return false
}

// AllWaiting returns true if the queue is not empty and every record in it is waiting.
func (q *Queue) AllWaiting() bool {
	return !q.Empty() && !q.HasWork()
}

// Labels returns the labels of the queued records in order.
func (q *Queue) Labels() []string {
	return task.Labels(q.entries)
}

// RunOrder returns the descriptors sorted so that every descriptor comes after all the descriptors it depends on.
// Independent descriptors keep their relative input order. Dependencies on unknown labels are ignored.
func RunOrder(descs []*task.Descriptor) []*task.Descriptor {
	byLabel := make(map[string]*task.Descriptor, len(descs))
	for _, desc := range descs {
		byLabel[desc.Label] = desc
	}

	entries := make([]*task.Descriptor, 0, len(descs))

	for _, desc := range descs {
		inserted := false
		// Try to insert the descriptor at each position, starting from the front
		for i := 0; i < len(entries); i++ {
			if containsDependencyInAncestry(byLabel, entries[i], desc.Label) {
				entries = append(entries[:i], append([]*task.Descriptor{desc}, entries[i:]...)...)
				inserted = true

				break
			}
		}

		// If no dependents were found, append to the end
		if !inserted {
			entries = append(entries, desc)
		}
	}

	return entries
}

// containsDependencyInAncestry returns true if `label` is a direct or transitive dependency of desc.
func containsDependencyInAncestry(byLabel map[string]*task.Descriptor, desc *task.Descriptor, label string) bool {
	visited := map[string]bool{desc.Label: true}
	stack := append([]string{}, desc.Deps...)

	for len(stack) > 0 {
		dep := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if dep == label {
			return true
		}

		if visited[dep] {
			continue
		}

		visited[dep] = true

		if parent, ok := byLabel[dep]; ok {
			stack = append(stack, parent.Deps...)
		}
	}

	return false
}
