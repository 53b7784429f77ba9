package registryserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// EventType is the kind of index event.
type EventType string

const (
	// EventIndex announces a new index.
	EventIndex EventType = "index"

	// EventError announces a failed rebuild. The previous index is still
	// served.
	EventError EventType = "error"
)

// Event is sent to subscribers as one JSON text message.
type Event struct {
	Type  EventType `json:"type"`
	Items int       `json:"items,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Events fans index events out to WebSocket subscribers.
type Events struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
}

// NewEvents creates an empty hub.
func NewEvents() *Events {
	return &Events{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Any local tool or page may subscribe.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and holds the connection until the
// client goes away.
func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	e.mu.Lock()
	e.clients[conn] = true
	e.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	e.mu.Lock()
	delete(e.clients, conn)
	e.mu.Unlock()
	conn.Close()
}

// Broadcast sends ev to every subscriber. Subscribers that cannot be
// written to are dropped.
func (e *Events) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	e.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(e.clients))
	for c := range e.clients {
		clients = append(clients, c)
	}
	e.mu.RUnlock()

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	for _, c := range clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			e.mu.Lock()
			delete(e.clients, c)
			e.mu.Unlock()
			c.Close()
		}
	}
}

// ClientCount returns the number of subscribers.
func (e *Events) ClientCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients)
}

// Close disconnects every subscriber.
func (e *Events) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for c := range e.clients {
		c.Close()
		delete(e.clients, c)
	}
}
