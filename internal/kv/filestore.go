package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileStore persists values in a single JSON file, written atomically via
// a temp file and rename.
type FileStore struct {
	Hub

	path   string
	mu     sync.RWMutex
	values map[string][]byte
}

// OpenFileStore loads or creates a file-backed store at path. A missing
// file is treated as an empty store; an unreadable one is an error.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string][]byte)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read kv file %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("decode kv file %s: %w", path, err)
	}

	return s, nil
}

func (s *FileStore) Data(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) SetData(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = data
	return s.persistLocked()
}

func (s *FileStore) Float(key string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return 0
	}
	return parseFloat(v)
}

func (s *FileStore) SetFloat(key string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = formatFloat(v)
	return s.persistLocked()
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.persistLocked()
}

func (s *FileStore) persistLocked() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode kv file %s: %w", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create kv directory for %s: %w", s.path, err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp kv file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil {
			log.Warn().Err(removeErr).Str("path", tmpPath).Msg("Failed to clean up temp kv file")
		}
		return fmt.Errorf("commit kv file %s: %w", s.path, err)
	}

	return nil
}
