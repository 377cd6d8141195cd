// Package settings persists the handful of locally visible scalars: the
// subscription status line and formatted expiration shown in the host
// app's settings screen, and the last build the user was prompted to
// review. These are device-local, unlike receipts they never sync.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

type values struct {
	Status            string `json:"status,omitempty"`
	Expiration        string `json:"expiration,omitempty"`
	LastReviewedBuild string `json:"lastVersionPromptedForReview,omitempty"`
}

// Store is a file-backed settings store, written atomically.
type Store struct {
	path string
	mu   sync.RWMutex
	v    values
}

// Open loads settings from path, treating a missing or corrupt file as
// empty settings.
func Open(path string) *Store {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to read settings, starting empty")
		}
		return s
	}
	if err := json.Unmarshal(data, &s.v); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Corrupt settings, starting empty")
		s.v = values{}
	}

	return s
}

// SetSubscription records the status line and formatted expiration.
func (s *Store) SetSubscription(status, expiration string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Status = status
	s.v.Expiration = expiration
	s.persistLocked()
}

// Subscription returns the stored status line and formatted expiration.
func (s *Store) Subscription() (status, expiration string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.v.Status, s.v.Expiration
}

// SetLastReviewedBuild records the build identifier the user was last
// prompted to review.
func (s *Store) SetLastReviewedBuild(build string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.LastReviewedBuild = build
	s.persistLocked()
}

func (s *Store) LastReviewedBuild() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.v.LastReviewedBuild
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode settings")
		return
	}
	if err := writeAtomic(s.path, data); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to persist settings")
	}
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp settings file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("commit settings file: %w", err)
	}

	return nil
}
