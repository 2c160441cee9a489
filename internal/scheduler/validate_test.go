package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		check func(t *testing.T, err error)
		name  string
		descs []*task.Descriptor
	}{
		{
			name:  "acyclic",
			descs: []*task.Descriptor{desc("a"), desc("b", "a"), desc("c", "a", "b")},
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:  "empty label",
			descs: []*task.Descriptor{desc("")},
			check: func(t *testing.T, err error) {
				var catalogErr scheduler.CatalogError
				require.ErrorAs(t, err, &catalogErr)
			},
		},
		{
			name:  "self dependency",
			descs: []*task.Descriptor{desc("a", "a")},
			check: func(t *testing.T, err error) {
				var deadlock scheduler.DeadlockDetectedError
				require.ErrorAs(t, err, &deadlock)
				assert.Equal(t, []string{"a", "a"}, deadlock.Cycle)
			},
		},
		{
			name:  "three node cycle behind a valid prefix",
			descs: []*task.Descriptor{desc("root"), desc("x", "root", "y"), desc("y", "z"), desc("z", "x")},
			check: func(t *testing.T, err error) {
				var deadlock scheduler.DeadlockDetectedError
				require.ErrorAs(t, err, &deadlock)
				assert.Equal(t, []string{"x", "y", "z", "x"}, deadlock.Cycle)
				assert.Equal(t, []string{"x", "y", "z"}, deadlock.Labels)
				assert.Contains(t, err.Error(), "x -> y -> z -> x")
			},
		},
		{
			name:  "missing dependency",
			descs: []*task.Descriptor{desc("a", "b")},
			check: func(t *testing.T, err error) {
				var missing scheduler.MissingDependencyError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, "b", missing.Dependency)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tc.check(t, scheduler.Validate(tc.descs))
		})
	}
}
