package kv

import (
	"context"
	"sync"
)

// MemoryStore is a Store backed by a map. Tests can inject failures
// through the Fail* hooks.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool

	// FailGet and FailSet, when non-nil, are returned by Get and Set
	// instead of touching the map.
	FailGet error
	FailSet error

	sets int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", false, ErrClosed
	}
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.FailSet != nil {
		return m.FailSet
	}
	m.data[key] = value
	m.sets++
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.data = make(map[string]string)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// SetCount returns how many successful Set calls the store has seen.
func (m *MemoryStore) SetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sets
}

var _ Store = (*MemoryStore)(nil)
