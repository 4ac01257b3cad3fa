package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type       string      `json:"type"`
	Timestamp  int64       `json:"timestamp,omitempty"`
	Collection Collection  `json:"collection,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections keyed by device
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a device
func (h *WSHub) Register(deviceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[deviceID]; exists {
		existing.conn.Close()
	}

	h.connections[deviceID] = &wsClient{conn: conn}

	log.Info().Str("device_id", deviceID).Msg("WebSocket connection registered")
}

// UnregisterConn removes the device's connection only if it is still conn.
// A connection replaced by a newer Register is left alone.
func (h *WSHub) UnregisterConn(deviceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.connections[deviceID]
	if !exists || client.conn != conn {
		return
	}
	client.conn.Close()
	delete(h.connections, deviceID)
	log.Info().Str("device_id", deviceID).Msg("WebSocket connection unregistered")
}

// SendToDevice sends a message to a specific device
func (h *WSHub) SendToDevice(deviceID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[deviceID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("device %s is not connected", deviceID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.UnregisterConn(deviceID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Connections returns the number of connected devices
func (h *WSHub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast sends a message to every connected device
func (h *WSHub) Broadcast(message WSMessage) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		if err := h.SendToDevice(id, message); err != nil {
			log.Error().Err(err).Str("device_id", id).Msg("Failed to broadcast message")
		}
	}
}

// OnChange tells every client that a collection was rewritten.
// It is meant to be passed to Store.Subscribe.
func (h *WSHub) OnChange(c Change) {
	h.Broadcast(WSMessage{
		Type:       "collection_changed",
		Timestamp:  time.Now().UnixMilli(),
		Collection: c.Collection,
	})
}
