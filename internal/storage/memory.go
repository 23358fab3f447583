package storage

import (
	"context"
	"sync"
)

// MemoryStore provides an in-memory implementation of Store.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemoryStore instantiates a new MemoryStore with an empty map.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: map[string][]byte{},
	}
}

func (s *MemoryStore) Load(_ context.Context, key string, dst any) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	s.mu.RLock()
	raw, ok := s.m[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return true, decode(key, raw, dst)
}

func (s *MemoryStore) Save(_ context.Context, key string, v any) error {
	raw, err := encode(key, v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.m[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Put stores raw bytes under key without encoding them. Tests use it to
// plant snapshots that a real writer would never produce.
func (s *MemoryStore) Put(key string, raw []byte) {
	s.mu.Lock()
	s.m[key] = raw
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error {
	return nil
}
