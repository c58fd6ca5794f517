package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/reporter"
)

const writeWait = 5 * time.Second

// Hub broadcasts run events to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  arbor.ILogger
}

func NewHub(logger arbor.ILogger) *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool), logger: logger}
}

// Register adds conn and drops it once the client goes away. Clients only
// listen; anything they send is discarded.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug().Int("clients", n).Msg("websocket client connected")

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.unregister(conn)
				return
			}
		}
	}()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
		h.logger.Debug().Int("clients", len(h.clients)).Msg("websocket client disconnected")
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify implements reporter.Notifier.
func (h *Hub) Notify(_ context.Context, ev reporter.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to marshal event")
		return
	}
	h.Broadcast(data)
}

// Broadcast writes one text frame to every client, dropping the ones that
// fail.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug().Err(err).Msg("dropping websocket client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
