package realtime

import (
	"encoding/json"
	"sync"

	"kanban-board-api/internal/kanban"

	log "github.com/sirupsen/logrus"
)

// Client represents a single websocket client connection.
// The network conn itself is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains the connected board clients and broadcasts events to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[Client]struct{}
	onChange func(connected int)
}

var hubInstance *Hub
var once sync.Once

// GetHub returns the process wide hub.
func GetHub() *Hub {
	once.Do(func() {
		hubInstance = NewHub()
	})
	return hubInstance
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[Client]struct{})}
}

// OnChange registers a callback that receives the client count after every
// Register and Unregister.
func (h *Hub) OnChange(fn func(connected int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Register adds a client.
func (h *Hub) Register(client Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n, fn := len(h.clients), h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client Client) {
	h.mu.Lock()
	delete(h.clients, client)
	n, fn := len(h.clients), h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client and returns how many accepted it.
// Clients are sent to outside the hub lock, so Send may unregister itself.
// Clients whose send fails are left for their handler to clean up.
func (h *Hub) Broadcast(message []byte) int {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.Send(message) {
			sent++
		}
	}
	return sent
}

// Message is the wire form of a board event. Messages for concurrent
// mutations can arrive out of order; clients apply them by revision.
type Message struct {
	kanban.Event
	Version int `json:"version"`
}

// EncodeEvent returns the JSON message pushed to clients for ev.
func EncodeEvent(ev kanban.Event) ([]byte, error) {
	return json.Marshal(Message{Event: ev, Version: 1})
}

// EventListener returns a board listener that encodes every event and hands
// it to publish.
func EventListener(publish func([]byte)) kanban.Listener {
	return func(ev kanban.Event) {
		msg, err := EncodeEvent(ev)
		if err != nil {
			log.WithError(err).WithField("event", ev.Kind).Error("realtime: encode event")
			return
		}
		publish(msg)
	}
}
