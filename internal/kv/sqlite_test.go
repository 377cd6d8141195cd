package kv

import (
	"path/filepath"
	"testing"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	return s
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	s := openTestSQLite(t)

	if _, ok := s.Data("receipts"); ok {
		t.Fatal("fresh store has data")
	}

	if err := s.SetData("receipts", []byte("[]")); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	data, ok := s.Data("receipts")
	if !ok || string(data) != "[]" {
		t.Fatalf("Data = %q, %t", data, ok)
	}

	// Upsert overwrites.
	if err := s.SetData("receipts", []byte(`[{"a":1}]`)); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	data, _ = s.Data("receipts")
	if string(data) != `[{"a":1}]` {
		t.Fatalf("Data after overwrite = %q", data)
	}
}

func TestSQLiteStoreFloat(t *testing.T) {
	s := openTestSQLite(t)

	if got := s.Float("store.unsealed"); got != 0 {
		t.Fatalf("Float on fresh store = %v", got)
	}
	if err := s.SetFloat("store.unsealed", 1767225600.25); err != nil {
		t.Fatalf("SetFloat: %v", err)
	}
	if got := s.Float("store.unsealed"); got != 1767225600.25 {
		t.Fatalf("Float = %v", got)
	}
}

func TestSQLiteStoreRemove(t *testing.T) {
	s := openTestSQLite(t)

	if err := s.SetData("receipts", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("receipts"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Data("receipts"); ok {
		t.Error("value still present after Remove")
	}
	if err := s.Remove("receipts"); err != nil {
		t.Errorf("Remove of missing key: %v", err)
	}
}
