//go:build linux || darwin
// +build linux darwin

package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
	"github.com/gruntwork-io/taskgrunt/internal/backend/local"
	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/os/signal"
	"github.com/gruntwork-io/taskgrunt/internal/task"
	"github.com/gruntwork-io/taskgrunt/pkg/log"
)

const signalTimeout = 10 * time.Second

func newBackend() *local.Backend {
	return local.New(
		local.WithOutput(io.Discard, io.Discard),
		local.WithLogger(log.New(log.WithOutput(io.Discard))),
	)
}

func shell(label, script string, opts map[string]string) *task.Descriptor {
	return &task.Descriptor{
		Label:    label,
		Runnable: "sh",
		Args:     []string{"-c", script},
		Options:  opts,
	}
}

func sleep(label string, opts map[string]string) *task.Descriptor {
	return &task.Descriptor{
		Label:    label,
		Runnable: "sleep",
		Args:     []string{"30"},
		Options:  opts,
	}
}

func collect(t *testing.T, handle backend.Handle) []backend.Signal {
	t.Helper()

	var signals []backend.Signal

	timer := time.NewTimer(signalTimeout)
	defer timer.Stop()

	for {
		select {
		case signal, ok := <-handle.Signals():
			if !ok {
				return signals
			}

			signals = append(signals, signal)
		case <-timer.C:
			t.Fatalf("timed out waiting for signals of %s", handle.Label())
		}
	}
}

func TestExecuteCompleted(t *testing.T) {
	t.Parallel()

	handle, err := newBackend().Execute(t.Context(), shell("ok", "exit 0", nil))
	require.NoError(t, err)
	assert.Equal(t, "ok", handle.Label())

	signals := collect(t, handle)
	require.Len(t, signals, 1)
	assert.Equal(t, backend.Completed, signals[0].Kind)
	assert.Equal(t, 0, signals[0].Metrics.ExitCode)
	assert.False(t, signals[0].Metrics.EndedAt.Before(signals[0].Metrics.StartedAt))
}

func TestExecuteFailed(t *testing.T) {
	t.Parallel()

	handle, err := newBackend().Execute(t.Context(), shell("broken", "exit 3", nil))
	require.NoError(t, err)

	signals := collect(t, handle)
	require.Len(t, signals, 1)
	assert.Equal(t, backend.Failed, signals[0].Kind)
	assert.Equal(t, 3, signals[0].Metrics.ExitCode)

	var processErr local.ProcessError
	require.True(t, errors.As(signals[0].Cause, &processErr))
	assert.Equal(t, "broken", processErr.Label)
	assert.Equal(t, 3, processErr.ExitCode)
}

func TestExecuteEnvAndDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o644))

	desc := shell("env", `test "$GREETING" = hello && test -f marker`, map[string]string{
		"dir":          dir,
		"env.GREETING": "hello",
	})

	handle, err := newBackend().Execute(t.Context(), desc)
	require.NoError(t, err)

	signals := collect(t, handle)
	require.Len(t, signals, 1)
	assert.Equal(t, backend.Completed, signals[0].Kind)
}

func TestExecuteTraceParent(t *testing.T) {
	t.Parallel()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(t.Context(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	desc := shell("traced", `test "$TRACEPARENT" = 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01`, nil)

	handle, err := newBackend().Execute(ctx, desc)
	require.NoError(t, err)

	signals := collect(t, handle)
	require.Len(t, signals, 1)
	assert.Equal(t, backend.Completed, signals[0].Kind)
}

func TestExecuteRelativeRunnable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\nexit 0\n"), 0o755))

	desc := &task.Descriptor{Label: "script", Runnable: "./run.sh", Options: map[string]string{"dir": dir}}

	handle, err := newBackend().Execute(t.Context(), desc)
	require.NoError(t, err)

	signals := collect(t, handle)
	require.Len(t, signals, 1)
	assert.Equal(t, backend.Completed, signals[0].Kind)
}

func TestExecuteUnresolvedRunnable(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		desc *task.Descriptor
	}{
		{"missing command", &task.Descriptor{Label: "a", Runnable: "taskgrunt-no-such-command"}},
		{"missing path", &task.Descriptor{Label: "b", Runnable: "./no/such/script.sh"}},
		{"empty", &task.Descriptor{Label: "c"}},
		{"bad option", &task.Descriptor{Label: "d", Runnable: "sh", Options: map[string]string{"retries": "1"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handle, err := newBackend().Execute(t.Context(), tc.desc)
			require.Error(t, err)
			assert.Nil(t, handle)
		})
	}
}

func TestExecuteTimeout(t *testing.T) {
	t.Parallel()

	handle, err := newBackend().Execute(t.Context(), sleep("slow", map[string]string{"timeout": "200ms"}))
	require.NoError(t, err)

	signals := collect(t, handle)
	require.Len(t, signals, 1)
	assert.Equal(t, backend.Failed, signals[0].Kind)

	var timeoutErr local.TimeoutError
	require.True(t, errors.As(signals[0].Cause, &timeoutErr))
	assert.Equal(t, 200*time.Millisecond, timeoutErr.Timeout)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	b := newBackend()

	handle, err := b.Execute(t.Context(), sleep("long", nil))
	require.NoError(t, err)

	b.Cancel(handle)
	b.Cancel(handle)

	signals := collect(t, handle)
	require.Len(t, signals, 2)
	assert.Equal(t, backend.CancelledAck, signals[0].Kind)
	assert.Equal(t, backend.Failed, signals[1].Kind)
}

func TestCancelForwardsSignal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := newBackend()

	ctx, cancel := context.WithCancelCause(t.Context())
	desc := shell("trapped", `trap 'exit 7' TERM; touch ready; while true; do sleep 0.1; done`, map[string]string{"dir": dir})

	handle, err := b.Execute(ctx, desc)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "ready"))
		return err == nil
	}, signalTimeout, 10*time.Millisecond)

	cancel(signal.Interrupted{Signal: syscall.SIGTERM})
	b.Cancel(handle)

	signals := collect(t, handle)
	require.Len(t, signals, 2)
	assert.Equal(t, backend.CancelledAck, signals[0].Kind)
	assert.Equal(t, backend.Failed, signals[1].Kind)
	assert.Equal(t, 7, signals[1].Metrics.ExitCode)
}
