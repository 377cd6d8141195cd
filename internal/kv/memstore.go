package kv

import "sync"

// MemStore is an in-memory Store for tests and throwaway runs. External
// changes are injected with NotifyExternalChange.
type MemStore struct {
	Hub

	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

func (s *MemStore) Data(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

func (s *MemStore) SetData(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = data
	return nil
}

func (s *MemStore) Float(key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return 0
	}
	return parseFloat(v)
}

func (s *MemStore) SetFloat(key string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = formatFloat(v)
	return nil
}

func (s *MemStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
