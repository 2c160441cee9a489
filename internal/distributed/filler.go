// Package distributed runs tasks through a shared store instead of child processes of the scheduler.
//
// Tasks travel through the lists of the store by label. A coordinator, either the Filler or the
// scheduler through Backend, pushes labels to `todo`. Workers on any host pop them, move them to `live`
// while they run, and finally push them to `done` or `failed`. Workers wait until the `ready` gate is set
// before consuming `todo`, so they never see a partially filled queue.
package distributed

import (
	"context"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/store"
	"github.com/gruntwork-io/taskgrunt/internal/task"
)

// Reset clears the lists of a previous run and closes the ready gate.
func Reset(ctx context.Context, s store.Store) error {
	if err := store.SetReady(ctx, s, false); err != nil {
		return err
	}

	return s.Del(ctx, store.TodoKey, store.LiveKey, store.DoneKey, store.FailedKey)
}

// Fill queues every descriptor for the workers. The ready gate is closed while the labels are pushed
// and opened once all of them are queued. Workers resolve dependencies themselves in this mode.
func Fill(ctx context.Context, s store.Store, descs []*task.Descriptor) error {
	if err := store.SetReady(ctx, s, false); err != nil {
		return errors.Errorf("failed to close the ready gate: %w", err)
	}

	labels := make([]string, len(descs))
	for i, desc := range descs {
		labels[i] = desc.Label
	}

	if err := s.RPush(ctx, store.TodoKey, labels...); err != nil {
		return errors.Errorf("failed to queue tasks: %w", err)
	}

	if err := store.SetReady(ctx, s, true); err != nil {
		return errors.Errorf("failed to open the ready gate: %w", err)
	}

	return nil
}
