package handlers

import (
	"net/http"

	"koi-keeper-backend/internal/middleware"
	"koi-keeper-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps holds everything the router serves
type Deps struct {
	Store   *services.Store
	Devices *services.DeviceService
	Photos  *services.PhotoService
	Hub     *services.WSHub
	Metrics http.Handler // nil disables /metrics
}

// NewRouter builds the HTTP routes
func NewRouter(d Deps) http.Handler {
	deviceHandler := NewDeviceHandler(d.Devices)
	koiHandler := NewKoiHandler(d.Store)
	photoHandler := NewPhotoHandler(d.Photos, d.Store)
	waterHandler := NewWaterHandler(d.Store)
	settingsHandler := NewSettingsHandler(d.Store)
	chartHandler := NewChartHandler(d.Store)
	wsHandler := NewWebSocketHandler(d.Hub, d.Devices)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/devices", deviceHandler.RegisterDevice)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.Devices))
			r.Put("/devices/push-token", deviceHandler.UpdatePushToken)

			r.Get("/koi", koiHandler.ListKoi)
			r.Post("/koi", koiHandler.CreateKoi)
			r.Get("/koi/{id}", koiHandler.GetKoi)
			r.Patch("/koi/{id}", koiHandler.UpdateKoi)
			r.Delete("/koi/{id}", koiHandler.DeleteKoi)
			r.Post("/koi/{id}/photos", koiHandler.AddPhoto)
			r.Patch("/koi/{id}/photos/{photo_id}", koiHandler.UpdatePhoto)
			r.Post("/koi/{id}/photos/upload-url", photoHandler.UploadURL)

			r.Get("/water-parameters", waterHandler.ListWaterParameters)
			r.Post("/water-parameters", waterHandler.CreateWaterParameter)

			r.Get("/notification-settings", settingsHandler.GetSettings)
			r.Put("/notification-settings", settingsHandler.UpdateSettings)

			r.Get("/chart", chartHandler.GetChart)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]interface{}{
			"status":      "ok",
			"saving":      d.Store.IsSaving(),
			"connections": d.Hub.Connections(),
		}, http.StatusOK)
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
