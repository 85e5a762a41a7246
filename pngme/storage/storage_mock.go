package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/opencontainers/go-digest"
)

// MockStorage is a simple in-memory Storage implementation for tests.
type MockStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMockStorage constructs an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files: make(map[string][]byte),
	}
}

func (m *MockStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return nil, storageError("read", path, fmt.Errorf("mock storage: %w", os.ErrNotExist))
	}
	return append([]byte(nil), data...), nil
}

func (m *MockStorage) WriteFile(ctx context.Context, path string, data []byte) (FileDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = append([]byte(nil), data...)
	return FileDescriptor{
		Path:   path,
		Digest: digest.FromBytes(data),
		Size:   int64(len(data)),
	}, nil
}

func (m *MockStorage) Stat(ctx context.Context, path string) (FileDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return FileDescriptor{}, storageError("stat", path, fmt.Errorf("mock storage: %w", os.ErrNotExist))
	}
	return FileDescriptor{
		Path:   path,
		Digest: digest.FromBytes(data),
		Size:   int64(len(data)),
	}, nil
}

// AddFile adds file content to the mock storage.
func (m *MockStorage) AddFile(path string, data []byte) digest.Digest {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = append([]byte(nil), data...)
	return digest.FromBytes(data)
}

// Paths lists stored paths in sorted order.
func (m *MockStorage) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
