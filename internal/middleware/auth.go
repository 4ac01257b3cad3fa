package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"koi-keeper-backend/internal/services"

	"github.com/rs/zerolog/log"
)

type contextKey string

const deviceIDKey contextKey = "device_id"

// Authenticator resolves a bearer token to a registered device id
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			deviceID, err := auth.Authenticate(r.Context(), parts[1])
			if err != nil {
				if errors.Is(err, services.ErrInvalidToken) {
					respondError(w, "Invalid token", http.StatusUnauthorized)
					return
				}
				log.Error().Err(err).Msg("Failed to authenticate device")
				respondError(w, "Failed to authenticate", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithDeviceID(r.Context(), deviceID)))
		})
	}
}

// WithDeviceID returns a context carrying the authenticated device id
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// GetDeviceID extracts device ID from context
func GetDeviceID(ctx context.Context) string {
	deviceID, ok := ctx.Value(deviceIDKey).(string)
	if !ok {
		return ""
	}
	return deviceID
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// ValidateWebSocketToken validates JWT token from WebSocket query parameter
func ValidateWebSocketToken(ctx context.Context, token string, auth Authenticator) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: token required", services.ErrInvalidToken)
	}
	return auth.Authenticate(ctx, token)
}
