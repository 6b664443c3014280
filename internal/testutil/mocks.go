// Package testutil provides shared test utilities and mocks for unit testing.
package testutil

import (
	"context"
	"sync"

	"github.com/fluxbase-eu/sizesnap/internal/storage"
)

// MockStorage implements storage.Storage in memory and counts every read and
// write, so tests can check how often a snapshot document was touched.
type MockStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	reads   int
	writes  int

	// Callbacks for custom behavior
	OnRead  func(ctx context.Context, key string) ([]byte, error)
	OnWrite func(ctx context.Context, key string, data []byte) error
}

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		objects: make(map[string][]byte),
	}
}

func (m *MockStorage) Name() string {
	return "mock"
}

func (m *MockStorage) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()

	if m.OnRead != nil {
		return m.OnRead(ctx, key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[key]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MockStorage) Write(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	m.writes++
	m.mu.Unlock()

	if m.OnWrite != nil {
		if err := m.OnWrite(ctx, key, data); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

// Put stores a document without counting it as a write
func (m *MockStorage) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

// Get returns a stored document without counting it as a read
func (m *MockStorage) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.objects[key]
	return data, exists
}

// Reads returns the number of Read calls
func (m *MockStorage) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// Writes returns the number of Write calls
func (m *MockStorage) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Reset clears all documents and counters
func (m *MockStorage) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = make(map[string][]byte)
	m.reads = 0
	m.writes = 0
}
