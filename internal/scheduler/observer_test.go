package scheduler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/scheduler"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

func TestLogObserver(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := log.New(
		log.WithOutput(&buf),
		log.WithLevel(log.DebugLevel),
		log.WithFormatter(log.NewTextFormatter().DisableColors()),
	)

	b := newFakeBackend(nil)

	_, err := run(t, newScheduler(b, scheduler.WithObservers(scheduler.NewLogObserver(logger))), desc("build"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Scheduling 1 tasks")
	assert.Contains(t, out, "[build] Dispatched")
	assert.Contains(t, out, "[build] Completed in")
	assert.Contains(t, out, "run_id=")
}

func TestEventKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "task_completed", scheduler.TaskCompleted.String())
	assert.Equal(t, "unknown", scheduler.EventKind(0).String())

	ev := scheduler.Event{Record: task.NewRecord(desc("a"))}
	assert.Equal(t, "a", ev.Label())
	assert.Empty(t, scheduler.Event{}.Label())
}
