package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"koi-keeper-backend/internal/config"
	"koi-keeper-backend/internal/models"
	"koi-keeper-backend/internal/repository"
	"koi-keeper-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/ws", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocket_PingAndChangeFeed(t *testing.T) {
	repo := repository.NewMemoryStore()
	devices := services.NewDeviceService(repo, "test-secret")
	store := services.NewStore(repo)
	hub := services.NewWSHub()
	store.Subscribe(hub.OnChange)

	srv := httptest.NewServer(NewRouter(Deps{
		Store:   store,
		Devices: devices,
		Photos:  services.NewPhotoService(nil, config.AWSConfig{}),
		Hub:     hub,
	}))
	defer srv.Close()

	device, err := devices.RegisterDevice(context.Background(), nil)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+device.Token, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() services.WSMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg services.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", read().Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`)))
	msg := read()
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "Unknown message type", msg.Message)

	require.True(t, store.UpdateNotificationSettings(context.Background(), models.DefaultNotificationSettings()))
	msg = read()
	assert.Equal(t, "collection_changed", msg.Type)
	assert.Equal(t, services.CollectionNotificationSettings, msg.Collection)

	require.Equal(t, 1, hub.Connections())
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}
