package store

import (
	"context"
	"sync"

	"flixgo-client/internal/domain/ports/repository"
	"flixgo-client/internal/infra/metrics"
)

var _ repository.KeyValueStore = (*MemoryStore)(nil)

// MemoryStore is a process-local store. Values are lost on exit.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		metrics.IncStoreOp("memory", "get", "miss")
		return "", false, nil
	}
	metrics.IncStoreOp("memory", "get", "ok")
	return v, true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	metrics.IncStoreOp("memory", "set", "ok")
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

// Snapshot returns a copy of every key, for tests and debugging.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}
