package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, hub *EventHub) (*websocket.Conn, func()) {
	t.Helper()
	h := NewHandler(nil, nil)
	h.SetEventHub(hub)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestEventHubBroadcast(t *testing.T) {
	hub := NewEventHub()
	conn, done := dialEvents(t, hub)
	defer done()

	hub.Notify(model.Event{Type: model.EventPrinterFound, Payload: map[string]string{"printer_id": "QL720"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, model.EventPrinterFound, got.Type)
	assert.Equal(t, "QL720", got.Payload["printer_id"])
}

func TestEventHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewEventHub()
	conn, done := dialEvents(t, hub)
	defer done()

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Notifying with no clients is a no-op
	hub.Notify(model.Event{Type: model.EventPrinterRemoved})
}

func TestEventHubClose(t *testing.T) {
	hub := NewEventHub()
	conn, done := dialEvents(t, hub)
	defer done()

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
}

func TestEventsNotEnabled(t *testing.T) {
	h := NewHandler(nil, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
