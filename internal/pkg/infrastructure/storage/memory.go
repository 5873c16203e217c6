package storage

import (
	"context"
	"sync"
)

// NewInMemory returns a Store backed by a plain map. It exists so tests and
// tooling can substitute the sqlite store without touching the filesystem.
func NewInMemory() Store {
	return &memoryStore{values: map[string]string{}}
}

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (s *memoryStore) Clear(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
