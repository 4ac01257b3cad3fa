package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"koi-keeper-backend/internal/models"
	"koi-keeper-backend/internal/repository"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub connects a client registered as deviceID and returns the client
// and server ends of the connection
func dialHub(t *testing.T, hub *WSHub, deviceID string) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(deviceID, conn)
		registered <- conn
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case serverConn := <-registered:
		return conn, serverConn
	case <-time.After(time.Second):
		t.Fatal("connection was not registered")
		return nil, nil
	}
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWSHub_StoreChangesAreBroadcast(t *testing.T) {
	hub := NewWSHub()
	a, _ := dialHub(t, hub, "device-a")
	b, _ := dialHub(t, hub, "device-b")
	require.Equal(t, 2, hub.Connections())

	store := newTestStore(t, repository.NewMemoryStore())
	unsubscribe := store.Subscribe(hub.OnChange)
	defer unsubscribe()

	_, ok := store.AddWaterParameter(context.Background(), models.NewWaterParameter{Date: "2024-05-01", PH: 7})
	require.True(t, ok)

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readWS(t, conn)
		assert.Equal(t, "collection_changed", msg.Type)
		assert.Equal(t, CollectionWaterParameters, msg.Collection)
	}
}

func TestWSHub_SendToOfflineDevice(t *testing.T) {
	hub := NewWSHub()
	err := hub.SendToDevice("nobody", WSMessage{Type: "pong"})
	assert.Error(t, err)
}

func TestWSHub_UnregisterConn(t *testing.T) {
	hub := NewWSHub()
	_, first := dialHub(t, hub, "device-a")
	_, second := dialHub(t, hub, "device-a")
	assert.Equal(t, 1, hub.Connections())

	// the replaced connection must not remove its successor
	hub.UnregisterConn("device-a", first)
	assert.Equal(t, 1, hub.Connections())

	hub.UnregisterConn("device-a", second)
	assert.Equal(t, 0, hub.Connections())
}
