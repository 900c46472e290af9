package redis

import (
	"context"
	"errors"

	"flixgo-client/internal/domain/ports/repository"
	"flixgo-client/internal/infra/metrics"
)

var _ repository.KeyValueStore = (*Store)(nil)

// Store keeps client state in Redis so several client processes of one
// account share plan and watch progress. Keys are namespaced by prefix and
// never expire.
type Store struct {
	client RedisClient
	prefix string
}

func NewStore(client RedisClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, Nil) {
		metrics.IncStoreOp("redis", "get", "miss")
		return "", false, nil
	}
	if err != nil {
		metrics.IncStoreOp("redis", "get", "error")
		return "", false, err
	}
	metrics.IncStoreOp("redis", "get", "ok")
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0); err != nil {
		metrics.IncStoreOp("redis", "set", "error")
		return err
	}
	metrics.IncStoreOp("redis", "set", "ok")
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key))
}

// Clear removes every key under the store prefix.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, s.prefix+"*")
	if err != nil {
		return err
	}
	return s.client.Del(ctx, keys...)
}
