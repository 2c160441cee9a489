// Package storetest holds the behavior every store.Store realization must share.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruntwork-io/taskgrunt/internal/store"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("get set del", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		_, err := s.Get(ctx, "k")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Set(ctx, "k", "v"))

		val, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", val)

		require.NoError(t, s.Del(ctx, "k"))

		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("ready gate", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		ready, err := store.IsReady(ctx, s)
		require.NoError(t, err)
		assert.False(t, ready)

		require.NoError(t, store.SetReady(ctx, s, true))

		ready, err = store.IsReady(ctx, s)
		require.NoError(t, err)
		assert.True(t, ready)

		require.NoError(t, s.Set(ctx, store.ReadyKey, "maybe"))

		_, err = store.IsReady(ctx, s)
		require.Error(t, err)
	})

	t.Run("push pop", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.RPush(ctx, "l", "b", "c"))
		require.NoError(t, s.LPush(ctx, "l", "a", "z"))

		list, err := store.List(ctx, s, "l")
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a", "b", "c"}, list)

		val, err := s.LPop(ctx, "l")
		require.NoError(t, err)
		assert.Equal(t, "z", val)

		for range 3 {
			_, err = s.LPop(ctx, "l")
			require.NoError(t, err)
		}

		_, err = s.LPop(ctx, "l")
		require.ErrorIs(t, err, store.ErrNotFound)

		list, err = store.List(ctx, s, "l")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("lrange", func(t *testing.T) {
		s := newStore(t)
		ctx := t.Context()

		require.NoError(t, s.RPush(ctx, "l", "a", "b", "c", "d"))

		testCases := []struct {
			expected    []string
			start, stop int64
		}{
			{[]string{"a", "b", "c", "d"}, 0, -1},
			{[]string{"b", "c"}, 1, 2},
			{[]string{"c", "d"}, -2, -1},
			{[]string{"a", "b", "c", "d"}, -10, 10},
			{[]string{}, 3, 1},
			{[]string{}, 5, 8},
		}

		for _, tc := range testCases {
			list, err := s.LRange(ctx, "l", tc.start, tc.stop)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, list, "LRANGE %d %d", tc.start, tc.stop)
		}
	})

	t.Run("lrem", func(t *testing.T) {
		ctx := t.Context()

		testCases := []struct {
			expected []string
			count    int64
			removed  int64
		}{
			{[]string{"b", "a", "c", "a"}, 1, 1},
			{[]string{"a", "b", "a", "c"}, -1, 1},
			{[]string{"b", "c"}, 0, 3},
			{[]string{"b", "c"}, 10, 3},
		}

		for _, tc := range testCases {
			s := newStore(t)
			require.NoError(t, s.RPush(ctx, "l", "a", "b", "a", "c", "a"))

			removed, err := s.LRem(ctx, "l", tc.count, "a")
			require.NoError(t, err)
			assert.Equal(t, tc.removed, removed)

			list, err := store.List(ctx, s, "l")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, list, "LREM %d", tc.count)
		}

		s := newStore(t)

		removed, err := s.LRem(ctx, "missing", 0, "a")
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}
