package redisstore_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/store"
	"github.com/gruntwork-io/taskgrunt/internal/store/redisstore"
	"github.com/gruntwork-io/taskgrunt/internal/store/storetest"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()

		server := miniredis.RunT(t)

		s, err := redisstore.New(t.Context(), redisstore.Options{Addr: server.Addr()})
		require.NoError(t, err)

		t.Cleanup(func() { _ = s.Close() })

		return s
	})
}

func TestNewUnreachable(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	_, err := redisstore.New(t.Context(), redisstore.Options{Addr: addr})
	require.Error(t, err)
}
