package preview

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType represents the type of a hub message.
type MessageType string

const (
	TypeReload MessageType = "reload"
	TypeUpdate MessageType = "update"
	TypeError  MessageType = "error"
)

// Message is sent to connected browsers over the websocket.
type Message struct {
	Type      MessageType `json:"type"`
	Component string      `json:"component,omitempty"`
	HTML      string      `json:"html,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Hub manages the preview websocket connections.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*websocket.Conn
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The preview server only runs locally.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the request and parks the connection until
// the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()

	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
	conn.Close()
}

// NotifyReload tells every client to reload the page.
func (h *Hub) NotifyReload() {
	h.broadcast(Message{Type: TypeReload})
}

// NotifyUpdate pushes a component's re-rendered HTML to every client.
func (h *Hub) NotifyUpdate(component, html string) {
	h.broadcast(Message{Type: TypeUpdate, Component: component, HTML: html})
}

// NotifyError shows an error overlay on every client.
func (h *Hub) NotifyError(msg string) {
	h.broadcast(Message{Type: TypeError, Error: msg})
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, c := range h.clients {
		conns[id] = c
	}
	h.mu.RUnlock()

	for id, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.mu.Lock()
			delete(h.clients, id)
			h.mu.Unlock()
			conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
