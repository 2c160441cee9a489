package signal_test

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/os/signal"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, signal.FromContext(t.Context()))

	ctx, cancel := context.WithCancelCause(t.Context())
	cancel(signal.Interrupted{Signal: syscall.SIGTERM})

	assert.Equal(t, syscall.SIGTERM, signal.FromContext(ctx))
	require.ErrorIs(t, context.Cause(ctx), context.Canceled)
	assert.Equal(t, "received signal: terminated", context.Cause(ctx).Error())
}

func TestNotifyContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := signal.NotifyContext(t.Context())
	cancel()

	<-ctx.Done()
	require.ErrorIs(t, context.Cause(ctx), context.Canceled)
	assert.Nil(t, signal.FromContext(ctx))
}
