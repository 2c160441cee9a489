// Package store defines the shared key/list store the distributed backend coordinates through.
// The commands mirror their Redis namesakes; each command is atomic, sequences of commands are not.
package store

import (
	"context"
	"strconv"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
)

// Well known keys.
const (
	TodoKey   = "todo"
	LiveKey   = "live"
	DoneKey   = "done"
	FailedKey = "failed"
	// ReadyKey gates workers: they must not consume todo while it is false.
	ReadyKey = "ready"
)

// ErrNotFound is returned by Get for a missing key and by LPop for an empty list.
var ErrNotFound = errors.New("store: not found")

// Store is a minimal Redis-like store.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LPush(ctx context.Context, key string, values ...string) error
	RPush(ctx context.Context, key string, values ...string) error
	LPop(ctx context.Context, key string) (string, error)
	// LRem removes occurrences of value: the first count from the head when count > 0,
	// the last -count from the tail when count < 0, and all of them when count is 0.
	LRem(ctx context.Context, key string, count int64, value string) (int64, error)
	// LRange returns the elements between start and stop inclusive. Negative indexes count from the tail.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Close() error
}

// SetReady sets the ready gate.
func SetReady(ctx context.Context, s Store, ready bool) error {
	return s.Set(ctx, ReadyKey, strconv.FormatBool(ready))
}

// IsReady returns the ready gate. A missing gate reads as not ready.
func IsReady(ctx context.Context, s Store) (bool, error) {
	val, err := s.Get(ctx, ReadyKey)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	ready, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.Errorf("invalid value %q for %s: %w", val, ReadyKey, err)
	}

	return ready, nil
}

// List returns the whole list stored at key.
func List(ctx context.Context, s Store, key string) ([]string, error) {
	return s.LRange(ctx, key, 0, -1)
}
