package kv

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	syncReadLimit      = 1 << 20
	syncInitialBackoff = time.Second
	syncMaxBackoff     = time.Minute
)

// SyncListener subscribes to a replication endpoint over websocket and
// converts its change pushes into hub notifications. It reconnects with
// exponential backoff until closed.
type SyncListener struct {
	url    string
	hub    *Hub
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncListener starts listening on url, notifying hub for every change
// push received.
func NewSyncListener(url string, hub *Hub) *SyncListener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &SyncListener{
		url:    url,
		hub:    hub,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go l.run(ctx)

	return l
}

// Close stops the listener and waits for its goroutine to exit.
func (l *SyncListener) Close() {
	l.cancel()
	<-l.done
}

func (l *SyncListener) run(ctx context.Context) {
	defer close(l.done)

	backoff := syncInitialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
		if err != nil {
			log.Warn().Err(err).Str("url", l.url).Msg("Sync connection failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > syncMaxBackoff {
				backoff = syncMaxBackoff
			}
			continue
		}

		log.Info().Str("url", l.url).Msg("Sync connected")
		backoff = syncInitialBackoff

		l.read(ctx, conn)
		conn.Close()
	}
}

func (l *SyncListener) read(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(syncReadLimit)

	// Unblock ReadMessage when the context is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("Sync read failed, reconnecting")
			}
			return
		}

		var change Change
		if err := json.Unmarshal(data, &change); err != nil {
			log.Warn().Err(err).Msg("Discarding malformed sync push")
			continue
		}

		log.Debug().
			Stringer("reason", change.Reason).
			Strs("keys", change.Keys).
			Msg("Sync push received")
		l.hub.NotifyExternalChange(change)
	}
}
