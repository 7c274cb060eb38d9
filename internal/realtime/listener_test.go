package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"aponte/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventServer(t *testing.T, connects *atomic.Int32, events ...interface{}) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-7", r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		connects.Add(1)

		for _, e := range events {
			if raw, ok := e.(string); ok {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(raw))
				continue
			}
			_ = conn.WriteJSON(e)
		}
		// hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=tok-7"
}

func TestListenerDispatchesEvents(t *testing.T) {
	t.Parallel()

	var connects atomic.Int32
	url := eventServer(t, &connects,
		models.Event{Type: models.EventMessagesChanged, MatchID: 3},
		"not json",
		models.Event{Type: models.EventMessagesChanged},
		models.Event{Type: "partner_typing"},
		models.Event{Type: models.EventMatchAssigned},
	)

	var (
		nudged   atomic.Int64
		nudges   atomic.Int32
		assigned atomic.Int32
	)
	l := NewListener(func() (string, error) { return url, nil }, Handlers{
		MessagesChanged: func(matchID int64) {
			nudged.Store(matchID)
			nudges.Add(1)
		},
		MatchAssigned: func() { assigned.Add(1) },
	}, 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return assigned.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(3), nudged.Load())
	assert.Equal(t, int32(1), nudges.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop after cancel")
	}
	assert.Equal(t, int32(1), connects.Load())
}

func TestListenerReconnects(t *testing.T) {
	t.Parallel()

	var connects atomic.Int32
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connects.Add(1)
		// drop the connection straight away
		conn.Close()
	}))
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	l := NewListener(func() (string, error) { return url, nil }, Handlers{}, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	require.Eventually(t, func() bool { return connects.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}
