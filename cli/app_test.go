package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/cli"
	"github.com/gruntwork-io/taskgrunt/cli/commands/run"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/report"
	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/options"
)

const pipeline = `tasks:
  - label: fetch
    run: echo
    args: [fetching]
  - label: build
    run: echo
    args: [building]
    deps: [fetch]
  - label: test
    run: echo
    args: [testing]
    deps: [build]
`

// syncBuffer is written concurrently by the child processes.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	opts := options.NewTaskgruntOptionsWithWriters(stdout, stderr)

	app := cli.NewApp(opts)
	err := app.RunContext(context.Background(), append([]string{"taskgrunt", "--no-color"}, args...))

	return stdout.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	out, err := runApp(t, "validate", "--catalog", writeCatalog(t, pipeline))
	require.NoError(t, err)

	assert.Equal(t, "fetch\nbuild <- fetch\ntest <- build\n", out)
}

func TestValidateCommandRejectsCycle(t *testing.T) {
	t.Parallel()

	catalog := writeCatalog(t, `tasks:
  - label: a
    run: echo
    deps: [b]
  - label: b
    run: echo
    deps: [a]
`)

	_, err := runApp(t, "validate", "--catalog", catalog)
	require.Error(t, err)

	var deadlock scheduler.DeadlockDetectedError
	require.True(t, errors.As(err, &deadlock), "unexpected error: %v", err)
	assert.Equal(t, []string{"a", "b", "a"}, deadlock.Cycle)
}

func TestRunCommandLocalBackend(t *testing.T) {
	t.Parallel()

	reportFile := filepath.Join(t.TempDir(), "report.json")

	out, err := runApp(t,
		"run",
		"--catalog", writeCatalog(t, pipeline),
		"--parallelism", "3",
		"--report-file", reportFile,
		"--report-format", "json",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "fetching\n")
	assert.Contains(t, out, "building\n")
	assert.Contains(t, out, "testing\n")
	assert.Contains(t, out, "❯❯ Run Summary  3 tasks")
	assert.Contains(t, out, "Succeeded")

	content, err := os.ReadFile(reportFile)
	require.NoError(t, err)

	runs, err := report.ParseJSONRuns(content)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fetch", "build", "test"}, runs.Labels())
}

func TestRunCommandFailingTask(t *testing.T) {
	t.Parallel()

	catalog := writeCatalog(t, `tasks:
  - label: broken
    run: "false"
  - label: after
    run: echo
    deps: [broken]
`)

	out, err := runApp(t, "run", "--catalog", catalog, "--parallelism", "2")
	require.Error(t, err)

	var failure scheduler.BackendFailureError
	require.True(t, errors.As(err, &failure), "unexpected error: %v", err)
	assert.Equal(t, "broken", failure.Label)
	assert.Equal(t, 1, errors.ExitCode(err))

	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "Not Started")
}

func TestRunCommandDistributedMemoryStore(t *testing.T) {
	t.Parallel()

	out, err := runApp(t,
		"run",
		"--catalog", writeCatalog(t, pipeline),
		"--backend", options.BackendDistributed,
		"--store", options.StoreMemory,
		"--poll-interval", "10ms",
		"--workers", "2",
		"--parallelism", "4",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "fetching\n")
	assert.Contains(t, out, "testing\n")
	assert.Contains(t, out, "❯❯ Run Summary  3 tasks")
}

func TestRunCommandDistributedSlotsFromWorkers(t *testing.T) {
	t.Parallel()

	out, err := runApp(t,
		"run",
		"--catalog", writeCatalog(t, pipeline),
		"--backend", options.BackendDistributed,
		"--store", options.StoreMemory,
		"--poll-interval", "10ms",
		"--workers", "1",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "❯❯ Run Summary  3 tasks")
}

func TestRunCommandRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
	}{
		{"unknown backend", []string{"--backend", "cloud"}},
		{"unknown store", []string{"--store", "etcd"}},
		{"unknown report format", []string{"--report-format", "xml"}},
		{"no parallelism", []string{"--parallelism", "0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"run", "--catalog", writeCatalog(t, pipeline)}, tc.args...)

			_, err := runApp(t, args...)
			require.Error(t, err)
		})
	}
}

func TestRunCommandLockHeld(t *testing.T) {
	t.Parallel()

	lockFile := filepath.Join(t.TempDir(), "taskgrunt.lock")
	catalog := writeCatalog(t, pipeline)

	_, err := runApp(t, "run", "--catalog", catalog, "--parallelism", "2", "--lock-file", lockFile)
	require.NoError(t, err, "the lock must be released after a run")

	lock := flock.New(lockFile)
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	defer lock.Unlock() //nolint:errcheck

	_, err = runApp(t, "run", "--catalog", catalog, "--parallelism", "2", "--lock-file", lockFile)

	var held run.LockHeldError
	require.True(t, errors.As(err, &held), "unexpected error: %v", err)
	assert.Equal(t, lockFile, held.Path)
}

func TestInvalidLogLevel(t *testing.T) {
	t.Parallel()

	_, err := runApp(t, "--log-level", "loud", "validate", "--catalog", writeCatalog(t, pipeline))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}
