package websocket

import (
	"encoding/json"
	"sync"

	"filechat-be/internal/dto"
	"filechat-be/internal/pkg/logger"
)

// Hub tracks live connections by connection id. Server pushes always target
// a single connection; the chat protocol has no broadcast path.
type Hub struct {
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ConnectionID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"connection_id": client.ConnectionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.ConnectionID]; ok && current == client {
				delete(h.clients, client.ConnectionID)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"connection_id": client.ConnectionID})
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers a server message to exactly one connection. Unknown
// connection ids are dropped with a warning: the tab may have closed while
// its answer was still being produced.
func (h *Hub) Send(connectionID string, msg dto.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal server message", map[string]interface{}{"error": err.Error()})
		return
	}

	h.mu.RLock()
	client, found := h.clients[connectionID]
	h.mu.RUnlock()

	if !found {
		h.logger.Warn("Hub", "No client for connection, dropping message", map[string]interface{}{"connection_id": connectionID})
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"connection_id": connectionID})
		h.unregister <- client
	}
}
