package store

import (
	"context"
	"sync"
)

type memoryKV struct {
	mutex   sync.RWMutex
	entries map[string]Entry
}

var _ KV = (*memoryKV)(nil)

// NewMemory returns an in-memory KV engine. Useful as a default and in tests.
func NewMemory() KV {
	return &memoryKV{entries: make(map[string]Entry)}
}

func (m *memoryKV) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *memoryKV) Put(_ context.Context, e Entry) error {
	m.mutex.Lock()
	m.entries[e.Key] = e
	m.mutex.Unlock()
	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	delete(m.entries, key)
	m.mutex.Unlock()
	return nil
}

func (m *memoryKV) DeleteAll(_ context.Context) error {
	m.mutex.Lock()
	m.entries = make(map[string]Entry)
	m.mutex.Unlock()
	return nil
}

func (m *memoryKV) Close() error {
	return nil
}
