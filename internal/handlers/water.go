package handlers

import (
	"net/http"

	"koi-keeper-backend/internal/models"
	"koi-keeper-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// WaterHandler serves the water parameter log
type WaterHandler struct {
	store *services.Store
}

// NewWaterHandler creates a new water parameter handler
func NewWaterHandler(store *services.Store) *WaterHandler {
	return &WaterHandler{
		store: store,
	}
}

type waterView struct {
	models.WaterParameter
	Warnings []string `json:"warnings"`
}

// ListWaterParameters handles GET /api/v1/water-parameters
func (h *WaterHandler) ListWaterParameters(w http.ResponseWriter, r *http.Request) {
	params := h.store.WaterParameters(r.Context())

	views := make([]waterView, 0, len(params))
	for _, p := range params {
		views = append(views, waterView{WaterParameter: p, Warnings: p.Warnings()})
	}
	respondJSON(w, views, http.StatusOK)
}

// CreateWaterParameter handles POST /api/v1/water-parameters
func (h *WaterHandler) CreateWaterParameter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.NewWaterParameter
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		req.Date = today()
	} else if _, err := models.ParseDate(req.Date); err != nil {
		respondError(w, "invalid date", http.StatusBadRequest)
		return
	}

	id, ok := h.store.AddWaterParameter(ctx, req)
	if !ok {
		respondError(w, "Failed to save water parameters", http.StatusInternalServerError)
		return
	}

	log.Info().Str("id", id).Str("date", req.Date).Msg("Water parameters logged")

	respondJSON(w, map[string]string{"id": id}, http.StatusCreated)
}
