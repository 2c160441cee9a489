package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/queue"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

func records(labels ...string) []*task.Record {
	recs := make([]*task.Record, 0, len(labels))
	for _, label := range labels {
		recs = append(recs, task.NewRecord(&task.Descriptor{Label: label}))
	}

	return recs
}

func TestQueueFIFOWithRequeue(t *testing.T) {
	t.Parallel()

	q := queue.NewQueue(records("a", "b", "c")...)
	require.Equal(t, 3, q.Len())

	first := q.PopFront()
	assert.Equal(t, "a", first.Label())

	q.Requeue(first)
	assert.Equal(t, task.StateWaiting, first.State)
	assert.Equal(t, []string{"b", "c", "a"}, q.Labels())
	assert.True(t, q.HasWork())
	assert.False(t, q.AllWaiting())

	q.Requeue(q.PopFront())
	q.Requeue(q.PopFront())
	assert.True(t, q.AllWaiting())
	assert.False(t, q.HasWork())

	q.ClearWaiting()
	for _, rec := range q.Entries() {
		assert.Equal(t, task.StatePending, rec.State)
	}

	assert.True(t, q.HasWork())
}

func TestQueueEmpty(t *testing.T) {
	t.Parallel()

	q := queue.NewQueue()
	assert.True(t, q.Empty())
	assert.Nil(t, q.PopFront())
	assert.False(t, q.AllWaiting())
	assert.False(t, q.HasWork())
}

func TestRunOrder(t *testing.T) {
	t.Parallel()

	labelsOf := func(descs []*task.Descriptor) []string {
		labels := make([]string, len(descs))
		for i, desc := range descs {
			labels[i] = desc.Label
		}

		return labels
	}

	t.Run("no dependencies", func(t *testing.T) {
		t.Parallel()

		descs := []*task.Descriptor{{Label: "first"}, {Label: "second"}, {Label: "third"}}

		// Order should remain the same as input
		assert.Equal(t, []string{"first", "second", "third"}, labelsOf(queue.RunOrder(descs)))
	})

	t.Run("already ordered dependencies", func(t *testing.T) {
		t.Parallel()

		descs := []*task.Descriptor{
			{Label: "first"},
			{Label: "second", Deps: []string{"first"}},
			{Label: "third", Deps: []string{"second"}},
		}

		assert.Equal(t, []string{"first", "second", "third"}, labelsOf(queue.RunOrder(descs)))
	})

	t.Run("reorder needed for dependencies", func(t *testing.T) {
		t.Parallel()

		descs := []*task.Descriptor{
			{Label: "third", Deps: []string{"second"}},
			{Label: "second", Deps: []string{"first"}},
			{Label: "first"},
		}

		assert.Equal(t, []string{"first", "second", "third"}, labelsOf(queue.RunOrder(descs)))
	})

	t.Run("transitive dependency", func(t *testing.T) {
		t.Parallel()

		descs := []*task.Descriptor{
			{Label: "deploy", Deps: []string{"test"}},
			{Label: "lint"},
			{Label: "test", Deps: []string{"build"}},
			{Label: "build"},
		}

		order := labelsOf(queue.RunOrder(descs))
		assert.Less(t, indexOf(order, "build"), indexOf(order, "test"))
		assert.Less(t, indexOf(order, "test"), indexOf(order, "deploy"))
		assert.Len(t, order, 4)
	})
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}

	return -1
}
