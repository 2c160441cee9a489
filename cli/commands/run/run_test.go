package run

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/options"
)

func TestSlotsOption(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		backend     string
		explicit    bool
		parallelism int
		workers     int
		expected    int
	}{
		{name: "local", backend: options.BackendLocal, parallelism: 5, workers: 3, expected: 4},
		{name: "distributed sized by workers", backend: options.BackendDistributed, parallelism: 5, workers: 3, expected: 3},
		{name: "distributed with explicit parallelism", backend: options.BackendDistributed, explicit: true, parallelism: 5, workers: 3, expected: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := options.NewTaskgruntOptions()
			opts.Backend = tc.backend
			opts.ExplicitParallelism = tc.explicit
			opts.Parallelism = tc.parallelism
			opts.WorkerCount = tc.workers

			assert.Equal(t, tc.expected, scheduler.New(slotsOption(opts)).Capacity())
		})
	}
}
