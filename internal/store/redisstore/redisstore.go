// Package redisstore implements store.Store on top of a Redis server.
package redisstore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/gruntwork-io/taskgrunt/internal/errors"
	"github.com/gruntwork-io/taskgrunt/internal/store"
)

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store talks to Redis through a go-redis client.
type Store struct {
	client *redis.Client
}

var _ store.Store = (*Store)(nil)

// New connects to the server and checks it answers.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, errors.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &Store{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Set implements store.Store.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return wrap(s.client.Set(ctx, key, value, 0).Err())
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()

	return val, wrap(err)
}

// Del implements store.Store.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return wrap(s.client.Del(ctx, keys...).Err())
}

// LPush implements store.Store.
func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}

	return wrap(s.client.LPush(ctx, key, toAny(values)...).Err())
}

// RPush implements store.Store.
func (s *Store) RPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}

	return wrap(s.client.RPush(ctx, key, toAny(values)...).Err())
}

// LPop implements store.Store.
func (s *Store) LPop(ctx context.Context, key string) (string, error) {
	val, err := s.client.LPop(ctx, key).Result()

	return val, wrap(err)
}

// LRem implements store.Store.
func (s *Store) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	removed, err := s.client.LRem(ctx, key, count, value).Result()

	return removed, wrap(err)
}

// LRange implements store.Store.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := s.client.LRange(ctx, key, start, stop).Result()

	return vals, wrap(err)
}

// Close implements store.Store.
func (s *Store) Close() error {
	return wrap(s.client.Close())
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return store.ErrNotFound
	}

	return errors.New(err)
}

func toAny(values []string) []any {
	result := make([]any, len(values))
	for i, val := range values {
		result[i] = val
	}

	return result
}
