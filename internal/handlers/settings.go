package handlers

import (
	"net/http"

	"koi-keeper-backend/internal/models"
	"koi-keeper-backend/internal/services"
)

// SettingsHandler serves the notification settings
type SettingsHandler struct {
	store *services.Store
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store *services.Store) *SettingsHandler {
	return &SettingsHandler{
		store: store,
	}
}

// GetSettings handles GET /api/v1/notification-settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.store.NotificationSettings(r.Context()), http.StatusOK)
}

// UpdateSettings handles PUT /api/v1/notification-settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.NotificationSettings
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.MeasurementInterval < 1 || req.WaterTestInterval < 1 {
		respondError(w, "intervals must be at least one day", http.StatusBadRequest)
		return
	}

	if !h.store.UpdateNotificationSettings(r.Context(), req) {
		respondError(w, "Failed to save notification settings", http.StatusInternalServerError)
		return
	}

	respondJSON(w, h.store.NotificationSettings(r.Context()), http.StatusOK)
}
