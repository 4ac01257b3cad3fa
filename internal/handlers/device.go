package handlers

import (
	"errors"
	"io"
	"net/http"

	"koi-keeper-backend/internal/middleware"
	"koi-keeper-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// DeviceHandler handles device registration requests
type DeviceHandler struct {
	deviceService *services.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}

type pushTokenRequest struct {
	PushToken *string `json:"pushToken"`
}

// RegisterDevice handles POST /api/v1/devices
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req pushTokenRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	device, err := h.deviceService.RegisterDevice(ctx, req.PushToken)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register device")
		respondError(w, "Failed to register device", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("device_id", device.ID).
		Bool("push", device.PushToken != nil).
		Msg("Device registered")

	respondJSON(w, device, http.StatusOK)
}

// UpdatePushToken handles PUT /api/v1/devices/push-token
func (h *DeviceHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := middleware.GetDeviceID(ctx)

	var req pushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.deviceService.UpdatePushToken(ctx, deviceID, req.PushToken); err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			respondError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("device_id", deviceID).Msg("Failed to update push token")
		respondError(w, "Failed to update push token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
