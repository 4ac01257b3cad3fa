package services

import (
	"context"
	"testing"

	"koi-keeper-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceService_RegisterAndValidate(t *testing.T) {
	ctx := context.Background()
	svc := NewDeviceService(repository.NewMemoryStore(), "secret")

	device, err := svc.RegisterDevice(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, device.Token)

	id, err := svc.ValidateJWT(device.Token)
	require.NoError(t, err)
	assert.Equal(t, device.ID, id)

	got, err := svc.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Token, "tokens are never persisted")
}

func TestDeviceService_RejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	other := NewDeviceService(repository.NewMemoryStore(), "other-secret")
	device, err := other.RegisterDevice(ctx, nil)
	require.NoError(t, err)

	svc := NewDeviceService(repository.NewMemoryStore(), "secret")
	_, err = svc.ValidateJWT(device.Token)
	assert.Error(t, err)

	_, err = svc.ValidateJWT("not-a-jwt")
	assert.Error(t, err)
}

func TestDeviceService_PushTokens(t *testing.T) {
	ctx := context.Background()
	svc := NewDeviceService(repository.NewMemoryStore(), "secret")

	tok := "apns-token-a"
	_, err := svc.RegisterDevice(ctx, &tok)
	require.NoError(t, err)
	silent, err := svc.RegisterDevice(ctx, nil)
	require.NoError(t, err)

	tokens, err := svc.PushTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apns-token-a"}, tokens)

	late := "apns-token-b"
	require.NoError(t, svc.UpdatePushToken(ctx, silent.ID, &late))
	tokens, err = svc.PushTokens(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"apns-token-a", "apns-token-b"}, tokens)
}

func TestDeviceService_UnknownDevice(t *testing.T) {
	ctx := context.Background()
	svc := NewDeviceService(repository.NewMemoryStore(), "secret")

	_, err := svc.GetDevice(ctx, "missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	tok := "x"
	assert.ErrorIs(t, svc.UpdatePushToken(ctx, "missing", &tok), ErrDeviceNotFound)
}

func TestDeviceService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewDeviceService(repository.NewMemoryStore(), "secret")

	device, err := svc.RegisterDevice(ctx, nil)
	require.NoError(t, err)

	id, err := svc.Authenticate(ctx, device.Token)
	require.NoError(t, err)
	assert.Equal(t, device.ID, id)

	// same secret, but the device lives in another installation's storage
	other := NewDeviceService(repository.NewMemoryStore(), "secret")
	stranger, err := other.RegisterDevice(ctx, nil)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, stranger.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
