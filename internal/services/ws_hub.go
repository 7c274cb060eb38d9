package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"aponte/internal/metrics"
	"aponte/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// wsConn serializes writes to one websocket
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[int64]*wsConn
	metrics     *metrics.Metrics
}

// NewWSHub creates a new WebSocket hub. m may be nil.
func NewWSHub(m *metrics.Metrics) *WSHub {
	return &WSHub{
		connections: make(map[int64]*wsConn),
		metrics:     m,
	}
}

// Register registers a connection for a user, replacing any older one
func (h *WSHub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
		h.metrics.WSDisconnected()
	}
	h.connections[userID] = &wsConn{conn: conn}
	h.metrics.WSConnected()

	log.Info().Int64("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes conn if it is still the user's current connection
func (h *WSHub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, exists := h.connections[userID]
	if !exists || (conn != nil && current.conn != conn) {
		return
	}
	current.conn.Close()
	delete(h.connections, userID)
	h.metrics.WSDisconnected()
	log.Info().Int64("user_id", userID).Msg("WebSocket connection unregistered")
}

// SendToUser sends an event to a connected user
func (h *WSHub) SendToUser(userID int64, event models.Event) error {
	h.mu.RLock()
	c, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %d is not connected", userID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.write(data); err != nil {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("failed to send event: %w", err)
	}
	h.metrics.WSEvent(event.Type)
	return nil
}

// IsOnline checks if a user is connected
func (h *WSHub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// Count returns the number of connected users
func (h *WSHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// CloseAll drops every connection
func (h *WSHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, c := range h.connections {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
		delete(h.connections, userID)
		h.metrics.WSDisconnected()
	}
}
