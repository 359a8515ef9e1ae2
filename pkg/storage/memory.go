package storage

import (
	"context"
	"sync"

	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
)

// MemoryStore is an in-memory ObjectStore used in tests. It is safe for
// concurrent use and counts writes so dedup behaviour can be asserted.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	writes  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores data under its content-addressed key, skipping the write when the
// key is already present.
func (m *MemoryStore) Put(_ context.Context, dir, filename string, data []byte) (string, error) {
	key := ObjectKey(dir, filename, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return key, nil
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	m.writes++
	return key, nil
}

// Get returns a copy of the stored object.
func (m *MemoryStore) Get(_ context.Context, objectPath string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectPath]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrFileNotFound, "")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Writes reports how many physical writes the store performed.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Seed inserts an object at an explicit path, bypassing content addressing.
// Useful for arranging pending-orig fixtures.
func (m *MemoryStore) Seed(objectPath string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath] = data
}
