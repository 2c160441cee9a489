package backend_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/backend"
)

func drain(handle backend.Handle) []backend.SignalKind {
	var kinds []backend.SignalKind

	for signal := range handle.Signals() {
		kinds = append(kinds, signal.Kind)
	}

	return kinds
}

func TestEmitterFirstTerminalWins(t *testing.T) {
	t.Parallel()

	emitter := backend.NewEmitter("build")

	assert.True(t, emitter.Complete(backend.Metrics{}))
	assert.False(t, emitter.Fail(errors.New("late"), backend.Metrics{}))
	assert.True(t, emitter.Terminated())

	assert.True(t, emitter.Ack())
	assert.False(t, emitter.Ack())

	assert.Equal(t, []backend.SignalKind{backend.Completed, backend.CancelledAck}, drain(emitter))
}

func TestEmitterAckBeforeTerminal(t *testing.T) {
	t.Parallel()

	emitter := backend.NewEmitter("build")

	assert.True(t, emitter.Ack())
	assert.True(t, emitter.Fail(errors.New("boom"), backend.Metrics{ExitCode: 2}))

	signals := make([]backend.Signal, 0, 2)
	for signal := range emitter.Signals() {
		signals = append(signals, signal)
	}

	require.Len(t, signals, 2)
	assert.Equal(t, backend.CancelledAck, signals[0].Kind)
	assert.Equal(t, backend.Failed, signals[1].Kind)
	assert.EqualError(t, signals[1].Cause, "boom")
	assert.Equal(t, 2, signals[1].Metrics.ExitCode)
}

func TestEmitterClose(t *testing.T) {
	t.Parallel()

	emitter := backend.NewEmitter("build")
	emitter.Complete(backend.Metrics{})
	emitter.Close()
	emitter.Close()

	assert.False(t, emitter.Ack())
	assert.Equal(t, []backend.SignalKind{backend.Completed}, drain(emitter))
	assert.Equal(t, "build", emitter.Label())
	assert.NotEmpty(t, emitter.ID())
}

func TestSignalKind(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind     backend.SignalKind
		name     string
		terminal bool
	}{
		{backend.Completed, "completed", true},
		{backend.Failed, "failed", true},
		{backend.CancelledAck, "cancelled", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.name, tc.kind.String())
			assert.Equal(t, tc.terminal, tc.kind.IsTerminal())
		})
	}
}
