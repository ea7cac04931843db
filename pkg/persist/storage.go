package persist

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrNotFound is returned by Storage.Load when no snapshot exists for a key.
var ErrNotFound = errors.New("persist: snapshot not found")

// Storage stores model snapshots by key.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Load returns the snapshot stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores data under key, replacing any previous snapshot.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes the snapshot under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys in sorted order.
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStorage keeps snapshots in process memory.
// It is the default for tests and single-process tools.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string][]byte),
	}
}

// Load implements Storage.
func (m *MemoryStorage) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

// Save implements Storage. data is copied.
func (m *MemoryStorage) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = slices.Clone(data)
	return nil
}

// Delete implements Storage.
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Keys implements Storage.
func (m *MemoryStorage) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Len returns the number of stored snapshots.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
