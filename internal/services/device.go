package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"koi-keeper-backend/internal/models"
	"koi-keeper-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DevicesKey is the storage key owned by DeviceService
	DevicesKey = "devices"
	jwtExpDays = 365
)

var (
	// ErrDeviceNotFound is returned for unknown device ids
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInvalidToken is returned by Authenticate for bad or foreign tokens
	ErrInvalidToken = errors.New("invalid token")
)

// DeviceService registers client devices and issues their access tokens
type DeviceService struct {
	repo      repository.KVStore
	jwtSecret string
	mu        sync.Mutex
}

// NewDeviceService creates a new device service
func NewDeviceService(repo repository.KVStore, jwtSecret string) *DeviceService {
	return &DeviceService{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

// RegisterDevice creates a device and returns it with a signed token
func (s *DeviceService) RegisterDevice(ctx context.Context, pushToken *string) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	device := models.Device{
		ID:        uuid.New().String(),
		PushToken: pushToken,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.save(ctx, append(devices, device)); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	token, err := s.GenerateJWT(device.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	device.Token = token
	return &device, nil
}

// GetDevice retrieves a device by ID
func (s *DeviceService) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, ErrDeviceNotFound
}

// UpdatePushToken sets or clears the push token of a device
func (s *DeviceService) UpdatePushToken(ctx context.Context, id string, pushToken *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range devices {
		if devices[i].ID == id {
			devices[i].PushToken = pushToken
			found = true
		}
	}
	if !found {
		return ErrDeviceNotFound
	}
	if err := s.save(ctx, devices); err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// PushTokens returns the push tokens of every device that has one
func (s *DeviceService) PushTokens(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var tokens []string
	for _, d := range devices {
		if d.PushToken != nil && *d.PushToken != "" {
			tokens = append(tokens, *d.PushToken)
		}
	}
	return tokens, nil
}

// Authenticate validates a token and checks that its device is still registered
func (s *DeviceService) Authenticate(ctx context.Context, tokenString string) (string, error) {
	deviceID, err := s.ValidateJWT(tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := s.GetDevice(ctx, deviceID); err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return "", err
	}
	return deviceID, nil
}

// GenerateJWT generates a JWT token for a device
func (s *DeviceService) GenerateJWT(deviceID string) (string, error) {
	claims := jwt.MapClaims{
		"device_id": deviceID,
		"exp":       time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the device ID
func (s *DeviceService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	deviceID, ok := claims["device_id"].(string)
	if !ok {
		return "", fmt.Errorf("device_id not found in token")
	}

	return deviceID, nil
}

func (s *DeviceService) load(ctx context.Context) ([]models.Device, error) {
	raw, found, err := s.repo.Get(ctx, DevicesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}
	if !found {
		return []models.Device{}, nil
	}
	var devices []models.Device
	if err := json.Unmarshal([]byte(raw), &devices); err != nil {
		return nil, fmt.Errorf("failed to parse devices: %w", err)
	}
	return devices, nil
}

func (s *DeviceService) save(ctx context.Context, devices []models.Device) error {
	for i := range devices {
		devices[i].Token = ""
	}
	data, err := json.Marshal(devices)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, DevicesKey, string(data))
}
