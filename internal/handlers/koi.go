package handlers

import (
	"net/http"
	"strings"
	"time"

	"koi-keeper-backend/internal/models"
	"koi-keeper-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// KoiHandler serves the koi collection and its photo entries
type KoiHandler struct {
	store *services.Store
}

// NewKoiHandler creates a new koi handler
func NewKoiHandler(store *services.Store) *KoiHandler {
	return &KoiHandler{
		store: store,
	}
}

// koiView adds derived fields to a stored koi
type koiView struct {
	models.Koi
	AgeMonths int `json:"ageMonths"`
}

func newKoiView(k models.Koi, now time.Time) koiView {
	return koiView{Koi: k, AgeMonths: k.AgeInMonths(now)}
}

// ListKoi handles GET /api/v1/koi
func (h *KoiHandler) ListKoi(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	koi := h.store.Koi(r.Context())

	views := make([]koiView, 0, len(koi))
	for _, k := range koi {
		views = append(views, newKoiView(k, now))
	}
	respondJSON(w, views, http.StatusOK)
}

// GetKoi handles GET /api/v1/koi/{id}
func (h *KoiHandler) GetKoi(w http.ResponseWriter, r *http.Request) {
	koi, ok := h.find(r)
	if !ok {
		respondError(w, "koi not found", http.StatusNotFound)
		return
	}
	respondJSON(w, newKoiView(koi, time.Now()), http.StatusOK)
}

// CreateKoi handles POST /api/v1/koi
func (h *KoiHandler) CreateKoi(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.NewKoi
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	id, ok := h.store.AddKoi(ctx, req)
	if !ok {
		respondError(w, "Failed to save koi", http.StatusInternalServerError)
		return
	}

	log.Info().Str("koi_id", id).Str("name", req.Name).Msg("Koi added")

	respondJSON(w, map[string]string{"id": id}, http.StatusCreated)
}

// UpdateKoi handles PATCH /api/v1/koi/{id}
func (h *KoiHandler) UpdateKoi(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var patch models.KoiPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		respondError(w, "name must not be empty", http.StatusBadRequest)
		return
	}

	koi, ok := h.find(r)
	if !ok {
		respondError(w, "koi not found", http.StatusNotFound)
		return
	}
	if !h.store.UpdateKoi(ctx, koi.ID, patch) {
		respondError(w, "Failed to save koi", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteKoi handles DELETE /api/v1/koi/{id}
func (h *KoiHandler) DeleteKoi(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	koi, ok := h.find(r)
	if !ok {
		respondError(w, "koi not found", http.StatusNotFound)
		return
	}
	if !h.store.DeleteKoi(ctx, koi.ID) {
		respondError(w, "Failed to delete koi", http.StatusInternalServerError)
		return
	}

	log.Info().Str("koi_id", koi.ID).Msg("Koi deleted")

	w.WriteHeader(http.StatusNoContent)
}

// AddPhoto handles POST /api/v1/koi/{id}/photos
func (h *KoiHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.NewPhoto
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URI == "" {
		respondError(w, "uri is required", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		req.Date = today()
	} else if _, err := models.ParseDate(req.Date); err != nil {
		respondError(w, "invalid date", http.StatusBadRequest)
		return
	}

	koi, ok := h.find(r)
	if !ok {
		respondError(w, "koi not found", http.StatusNotFound)
		return
	}

	id, ok := h.store.AddPhotoToKoi(ctx, koi.ID, req)
	if !ok {
		respondError(w, "Failed to save photo", http.StatusInternalServerError)
		return
	}

	log.Info().Str("koi_id", koi.ID).Str("photo_id", id).Msg("Photo added")

	respondJSON(w, map[string]string{"id": id}, http.StatusCreated)
}

// UpdatePhoto handles PATCH /api/v1/koi/{id}/photos/{photo_id}
func (h *KoiHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	photoID := chi.URLParam(r, "photo_id")

	var patch models.PhotoPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Date != nil {
		if _, err := models.ParseDate(*patch.Date); err != nil {
			respondError(w, "invalid date", http.StatusBadRequest)
			return
		}
	}

	koi, ok := h.find(r)
	if !ok {
		respondError(w, "koi not found", http.StatusNotFound)
		return
	}
	if !hasPhoto(koi, photoID) {
		respondError(w, "photo not found", http.StatusNotFound)
		return
	}
	if !h.store.UpdatePhoto(ctx, koi.ID, photoID, patch) {
		respondError(w, "Failed to save photo", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *KoiHandler) find(r *http.Request) (models.Koi, bool) {
	id := chi.URLParam(r, "id")
	for _, k := range h.store.Koi(r.Context()) {
		if k.ID == id {
			return k, true
		}
	}
	return models.Koi{}, false
}

func hasPhoto(koi models.Koi, photoID string) bool {
	for _, p := range koi.Photos {
		if p.ID == photoID {
			return true
		}
	}
	return false
}
