package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"koi-keeper-backend/internal/middleware"
	"koi-keeper-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub           *services.WSHub
	deviceService *services.DeviceService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, deviceService *services.DeviceService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		deviceService: deviceService,
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	deviceID, err := middleware.ValidateWebSocketToken(r.Context(), r.URL.Query().Get("token"), h.deviceService)
	if errors.Is(err, services.ErrInvalidToken) {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to authenticate WebSocket connection")
		respondError(w, "Failed to authenticate", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(deviceID, conn)
	defer h.hub.UnregisterConn(deviceID, conn)

	log.Info().Str("device_id", deviceID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("device_id", deviceID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.reply(deviceID, services.WSMessage{Type: "error", Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.reply(deviceID, services.WSMessage{Type: "pong", Timestamp: time.Now().UnixMilli()})
		default:
			h.reply(deviceID, services.WSMessage{Type: "error", Message: "Unknown message type"})
		}
	}
}

func (h *WebSocketHandler) reply(deviceID string, msg services.WSMessage) {
	if err := h.hub.SendToDevice(deviceID, msg); err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Str("type", msg.Type).Msg("Failed to send WebSocket message")
	}
}
