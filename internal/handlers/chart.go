package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"koi-keeper-backend/internal/chart"
	"koi-keeper-backend/internal/services"
)

const (
	defaultChartWidth  = 335
	defaultChartHeight = 200
)

// ChartHandler serves growth chart geometry
type ChartHandler struct {
	store *services.Store
}

// NewChartHandler creates a new chart handler
func NewChartHandler(store *services.Store) *ChartHandler {
	return &ChartHandler{
		store: store,
	}
}

// GetChart handles GET /api/v1/chart
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	metric := chart.Metric(q.Get("metric"))
	switch metric {
	case "":
		metric = chart.MetricLength
	case chart.MetricLength, chart.MetricWeight:
	default:
		respondError(w, "metric must be length or weight", http.StatusBadRequest)
		return
	}

	width, err := dimension(q.Get("width"), defaultChartWidth)
	if err != nil {
		respondError(w, "invalid width", http.StatusBadRequest)
		return
	}
	height, err := dimension(q.Get("height"), defaultChartHeight)
	if err != nil {
		respondError(w, "invalid height", http.StatusBadRequest)
		return
	}

	points := chart.PointsFromKoi(h.store.Koi(r.Context()))
	result, err := chart.Project(points, chart.Options{
		Width:    width,
		Height:   height,
		Metric:   metric,
		Selected: q["koi"],
	})
	if errors.Is(err, chart.ErrNoData) {
		respondError(w, "no data", http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, "Failed to build chart", http.StatusInternalServerError)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

func dimension(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.New("dimension must be positive")
	}
	return v, nil
}
