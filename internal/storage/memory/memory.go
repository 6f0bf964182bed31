package memory

import (
	"context"
	"sync"

	"github.com/fdg312/diet-planner/internal/storage"
)

var _ storage.KV = (*MemoryStorage)(nil)

// MemoryStorage is an in-memory storage.KV. Data lives until restart.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStorage) Put(ctx context.Context, key string, value []byte) error {
	_ = ctx
	cp := make([]byte, len(value))
	copy(cp, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = cp
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
