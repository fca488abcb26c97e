package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Client represents a single websocket client connection.
// We keep it minimal here; the actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains the connected clients of one server and broadcasts events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewHub creates an empty hub. The server owns it and passes it to the
// handlers and the snapshot watcher.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]Client)}
}

// Register adds a client under its connection id.
func (h *Hub) Register(id string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = client
}

// Unregister removes a client.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends message to every client and returns how many accepted it.
func (h *Hub) Broadcast(message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for id, c := range h.clients {
		if ok := c.Send(message); !ok {
			// client write failed; the handler cleans it up when its reader exits
			log.Printf("websocket send to %s failed", id)
			continue
		}
		sent++
	}
	return sent
}

// Publish encodes ev and broadcasts it.
func (h *Hub) Publish(ev Event) (int, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	return h.Broadcast(data), nil
}
