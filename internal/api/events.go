package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/martinsuchenak/labeld/internal/log"
	"github.com/martinsuchenak/labeld/internal/model"
)

const (
	clientQueueSize = 32
	writeTimeout    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type eventClient struct {
	conn *websocket.Conn
	send chan model.Event
	once sync.Once
}

func (c *eventClient) close() {
	c.once.Do(func() { close(c.send) })
}

// EventHub pushes fleet and job events to websocket subscribers
type EventHub struct {
	mu      sync.RWMutex
	clients map[*eventClient]bool
	closed  bool
}

func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*eventClient]bool)}
}

func (h *EventHub) register(c *eventClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = true
	return true
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		c.close()
	}
}

// Notify queues an event for every client. A client whose queue is full
// misses the event rather than stalling the caller.
func (h *EventHub) Notify(event model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			log.Warn("Dropping event for slow websocket client", "type", event.Type, "remote", client.conn.RemoteAddr().String())
		}
	}
}

// ClientCount returns the number of connected subscribers
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all subscribers
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		client.close()
	}
}

// ServeHTTP handles GET /api/events
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := &eventClient{conn: conn, send: make(chan model.Event, clientQueueSize)}
	if !h.register(client) {
		conn.Close()
		return
	}
	log.Debug("Event subscriber connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(client)

	// Clients only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(client)
	log.Debug("Event subscriber disconnected", "remote", conn.RemoteAddr().String())
}

func (h *EventHub) writeLoop(c *eventClient) {
	defer c.conn.Close()
	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(event); err != nil {
			log.Debug("WebSocket send error", "error", err)
			h.unregister(c)
			// Drain so unregister's close ends the loop
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}
