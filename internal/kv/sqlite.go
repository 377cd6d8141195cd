package kv

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps values in a single-table sqlite database, for
// installations that prefer one database file over loose JSON.
type SQLiteStore struct {
	Hub

	db *sql.DB
}

// OpenSQLiteStore opens or creates the database at path and ensures the
// kv table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open kv database %s: %w", path, err)
	}
	// The store is only ever touched from the event actor, one writer is
	// plenty and sidesteps SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table in %s: %w", path, err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Data(key string) ([]byte, bool) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (s *SQLiteStore) SetData(key string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("set kv key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Float(key string) float64 {
	v, ok := s.Data(key)
	if !ok {
		return 0
	}
	return parseFloat(v)
}

func (s *SQLiteStore) SetFloat(key string, v float64) error {
	return s.SetData(key, formatFloat(v))
}

func (s *SQLiteStore) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove kv key %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("close kv database: %w", err)
	}
	return nil
}
