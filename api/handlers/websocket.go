package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub keeps the open dashboard sockets and fans events out to them
type Hub struct {
	clients map[*websocket.Conn]struct{}
	mutex   sync.Mutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// HandleWebSocket upgrades the request and keeps the connection registered
// until the client goes away. Clients only listen; anything they send is
// discarded.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("WebSocket upgrade error", "error", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = struct{}{}
	h.mutex.Unlock()
	zap.S().Debugw("dashboard connected to /ws", "remote", r.RemoteAddr)

	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	h.remove(conn)
	zap.S().Debugw("dashboard disconnected from /ws", "remote", r.RemoteAddr)
}

// Broadcast sends an event to every connected dashboard. Connections that
// fail to take the write are dropped.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		err := conn.WriteJSON(map[string]interface{}{
			"event": event,
			"data":  data,
		})
		if err != nil {
			zap.S().Warnw("Error broadcasting event", "event", event, "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Len is the number of connected dashboards
func (h *Hub) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}
