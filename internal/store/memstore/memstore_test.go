package memstore_test

import (
	"testing"

	"github.com/gruntwork-io/taskgrunt/internal/store"
	"github.com/gruntwork-io/taskgrunt/internal/store/memstore"
	"github.com/gruntwork-io/taskgrunt/internal/store/storetest"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()

		return memstore.New()
	})
}
