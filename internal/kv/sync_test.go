package kv

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestSyncListenerForwardsChanges(t *testing.T) {
	hub := &Hub{}
	received := make(chan Change, 4)
	hub.Subscribe(func(c Change) { received <- c })

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// One malformed push, then a real one.
		if err := conn.WriteMessage(websocket.TextMessage, []byte("{broken")); err != nil {
			return
		}
		payload, _ := json.Marshal(Change{Reason: ServerChange, Keys: []string{"receipts"}})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}

		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	l := NewSyncListener(url, hub)
	defer l.Close()

	select {
	case c := <-received:
		if c.Reason != ServerChange || len(c.Keys) != 1 || c.Keys[0] != "receipts" {
			t.Fatalf("change = %+v", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change forwarded")
	}

	// The malformed push must have been discarded, not forwarded.
	select {
	case c := <-received:
		t.Fatalf("unexpected extra change %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSyncListenerCloseUnblocks(t *testing.T) {
	// No server behind this address, the listener sits in its backoff
	// loop. Close must still return promptly.
	l := NewSyncListener("ws://127.0.0.1:1/sync", &Hub{})

	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}
