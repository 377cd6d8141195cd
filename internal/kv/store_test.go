package kv

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")

	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}

	if err := s.SetData("receipts", []byte(`[{"a":1}]`)); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if err := s.SetFloat("store.unsealed", 1767225600.5); err != nil {
		t.Fatalf("SetFloat: %v", err)
	}

	// A second open must see the same values.
	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	data, ok := reopened.Data("receipts")
	if !ok || string(data) != `[{"a":1}]` {
		t.Errorf("Data = %q, %t", data, ok)
	}
	if got := reopened.Float("store.unsealed"); math.Abs(got-1767225600.5) > 1e-6 {
		t.Errorf("Float = %v", got)
	}
}

func TestFileStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")

	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetData("receipts", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("receipts"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s.Data("receipts"); ok {
		t.Error("value still present after Remove")
	}

	// Removing a missing key is fine.
	if err := s.Remove("receipts"); err != nil {
		t.Errorf("Remove of missing key: %v", err)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	if _, ok := s.Data("anything"); ok {
		t.Error("fresh store has data")
	}
	if got := s.Float("anything"); got != 0 {
		t.Errorf("Float on fresh store = %v", got)
	}
}

func TestFileStoreCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFileStore(path); err == nil {
		t.Fatal("OpenFileStore accepted a corrupt file")
	}
}

func TestHubSubscribe(t *testing.T) {
	s := NewMemStore()

	var got []Change
	id := s.Subscribe(func(c Change) { got = append(got, c) })

	s.NotifyExternalChange(Change{Reason: ServerChange, Keys: []string{"receipts"}})
	if len(got) != 1 {
		t.Fatalf("subscriber saw %d changes, want 1", len(got))
	}
	if got[0].Reason != ServerChange || len(got[0].Keys) != 1 {
		t.Errorf("change = %+v", got[0])
	}

	s.Unsubscribe(id)
	s.NotifyExternalChange(Change{Reason: AccountChange})
	if len(got) != 1 {
		t.Error("unsubscribed subscriber still notified")
	}
}

func TestChangeReasonString(t *testing.T) {
	tests := []struct {
		reason ChangeReason
		want   string
	}{
		{AccountChange, "account change"},
		{InitialSync, "initial sync"},
		{ServerChange, "server change"},
		{QuotaViolation, "quota violation"},
		{ChangeReason(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.reason, got, tt.want)
		}
	}
}
