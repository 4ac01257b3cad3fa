package handlers

import (
	"errors"
	"io"
	"net/http"

	"koi-keeper-backend/internal/middleware"
	"koi-keeper-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler hands out upload URLs for koi photos
type PhotoHandler struct {
	photoService *services.PhotoService
	store        *services.Store
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService, store *services.Store) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		store:        store,
	}
}

// UploadURL handles POST /api/v1/koi/{id}/photos/upload-url
func (h *PhotoHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := middleware.GetDeviceID(ctx)
	koiID := chi.URLParam(r, "id")

	var req services.UploadRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	found := false
	for _, k := range h.store.Koi(ctx) {
		if k.ID == koiID {
			found = true
			break
		}
	}
	if !found {
		respondError(w, "koi not found", http.StatusNotFound)
		return
	}

	response, err := h.photoService.GetPreSignedURL(ctx, koiID, req.ContentType)
	if err != nil {
		if errors.Is(err, services.ErrPhotosDisabled) {
			respondError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		log.Error().
			Err(err).
			Str("device_id", deviceID).
			Str("koi_id", koiID).
			Msg("Failed to generate pre-signed URL")
		respondError(w, "Failed to generate upload URL", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("device_id", deviceID).
		Str("koi_id", koiID).
		Msg("Pre-signed URL generated")

	respondJSON(w, response, http.StatusOK)
}
