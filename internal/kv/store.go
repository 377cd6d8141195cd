// Package kv abstracts the cloud-synchronized key-value database holding
// receipts and the unsealed timestamp. Backends share a change hub that
// fans external replication pushes out to subscribers.
package kv

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// ChangeReason enumerates why the backing database changed externally.
type ChangeReason int

const (
	// AccountChange signals the owning account switched.
	AccountChange ChangeReason = iota
	// InitialSync signals the first download after connecting.
	InitialSync
	// ServerChange signals values changed on another device.
	ServerChange
	// QuotaViolation signals the server rejected writes.
	QuotaViolation
)

func (r ChangeReason) String() string {
	switch r {
	case AccountChange:
		return "account change"
	case InitialSync:
		return "initial sync"
	case ServerChange:
		return "server change"
	case QuotaViolation:
		return "quota violation"
	default:
		return "unknown"
	}
}

// Change describes one external modification of the store.
type Change struct {
	Reason ChangeReason `json:"reason"`
	Keys   []string     `json:"keys"`
}

// Store is the key-value database interface receipts are persisted in.
type Store interface {
	// Data returns the raw value for key, false if absent.
	Data(key string) ([]byte, bool)
	SetData(key string, data []byte) error
	// Float returns the float value for key, zero if absent.
	Float(key string) float64
	SetFloat(key string, v float64) error
	Remove(key string) error

	Notifier
}

// Notifier delivers external-change notifications.
type Notifier interface {
	// Subscribe registers fn for external changes and returns a handle
	// for Unsubscribe.
	Subscribe(fn func(Change)) string
	Unsubscribe(id string)
}

// Hub implements Notifier with a uuid-keyed subscriber registry. Backends
// embed it; replication listeners push into it.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]func(Change)
}

func (h *Hub) Subscribe(fn func(Change)) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[string]func(Change))
	}
	id := uuid.NewString()
	h.subs[id] = fn
	return id
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// NotifyExternalChange fans change out to every subscriber, synchronously
// and in unspecified order.
func (h *Hub) NotifyExternalChange(change Change) {
	h.mu.RLock()
	fns := make([]func(Change), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

func formatFloat(v float64) []byte {
	return []byte(strconv.FormatFloat(v, 'g', -1, 64))
}

func parseFloat(data []byte) float64 {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0
	}
	return v
}
