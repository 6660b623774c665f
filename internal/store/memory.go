package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is a process-local Store used by tests and ephemeral servers.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) json.RawMessage {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return validate(key, append([]byte(nil), raw...))
}

func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	data, err := marshal(key, value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// PutRaw stores bytes without validation, simulating a value written by
// another tool or a truncated write.
func (m *MemoryStore) PutRaw(key string, raw []byte) {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), raw...)
	m.mu.Unlock()
}
