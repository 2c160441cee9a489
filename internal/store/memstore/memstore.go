// Package memstore is an in-process Store, used for single host runs and tests.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/gruntwork-io/taskgrunt/internal/store"
)

// Store keeps strings and lists in memory behind a single mutex.
type Store struct {
	values map[string]string
	lists  map[string][]string
	mu     sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		values: make(map[string]string),
		lists:  make(map[string][]string),
	}
}

// Set implements store.Store.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return nil
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.values[key]
	if !ok {
		return "", store.ErrNotFound
	}

	return val, nil
}

// Del implements store.Store.
func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
		delete(s.lists, key)
	}

	return nil
}

// LPush implements store.Store. Like Redis, each value is pushed to the head in turn.
func (s *Store) LPush(_ context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	for _, val := range values {
		list = append([]string{val}, list...)
	}

	s.lists[key] = list

	return nil
}

// RPush implements store.Store.
func (s *Store) RPush(_ context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = append(s.lists[key], values...)

	return nil
}

// LPop implements store.Store.
func (s *Store) LPop(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	if len(list) == 0 {
		return "", store.ErrNotFound
	}

	val := list[0]
	s.setList(key, list[1:])

	return val, nil
}

// LRem implements store.Store.
func (s *Store) LRem(_ context.Context, key string, count int64, value string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := slices.Clone(s.lists[key])

	var removed int64

	if count >= 0 {
		for i := 0; i < len(list); {
			if list[i] == value && (count == 0 || removed < count) {
				list = slices.Delete(list, i, i+1)
				removed++

				continue
			}

			i++
		}
	} else {
		for i := len(list) - 1; i >= 0 && removed < -count; i-- {
			if list[i] == value {
				list = slices.Delete(list, i, i+1)
				removed++
			}
		}
	}

	s.setList(key, list)

	return removed, nil
}

// LRange implements store.Store.
func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	size := int64(len(list))

	if start < 0 {
		start = max(0, size+start)
	}

	if stop < 0 {
		stop = size + stop
	}

	stop = min(stop, size-1)

	if start > stop {
		return []string{}, nil
	}

	return slices.Clone(list[start : stop+1]), nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) setList(key string, list []string) {
	if len(list) == 0 {
		delete(s.lists, key)
		return
	}

	s.lists[key] = list
}
