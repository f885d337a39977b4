// Package ws is the WebSocket transport. The Hub tracks live connections
// and per-room broadcast groups; Clients pump frames; the Handler upgrades
// HTTP requests and dispatches inbound events to the session coordinator.
package ws

import (
	"log/slog"
	"sync"

	"github.com/nwestbury/digitduel/internal/model"
	"github.com/nwestbury/digitduel/internal/registry"
)

// Envelope is the wire frame in both directions
type Envelope struct {
	Event model.EventType `json:"event"`
	Data  any             `json:"data,omitempty"`
}

// Hub tracks connected clients and their room subscriptions. It implements
// session.Broadcaster.
type Hub struct {
	mu     sync.RWMutex
	conns  map[registry.ConnID]*Client
	rooms  map[model.RoomID]map[registry.ConnID]*Client
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[registry.ConnID]*Client),
		rooms:  make(map[model.RoomID]map[registry.ConnID]*Client),
		logger: logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

// unregister drops a client from the hub and every room group
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.ID)
	for roomID, group := range h.rooms {
		delete(group, c.ID)
		if len(group) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Subscribe adds a connection to a room's broadcast group
func (h *Hub) Subscribe(conn registry.ConnID, roomID model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[conn]
	if !ok {
		return
	}
	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[registry.ConnID]*Client)
		h.rooms[roomID] = group
	}
	group[conn] = c
}

// Unsubscribe removes a connection from a room's broadcast group
func (h *Hub) Unsubscribe(conn registry.ConnID, roomID model.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(group, conn)
	if len(group) == 0 {
		delete(h.rooms, roomID)
	}
}

// ToConn sends an event to one connection. Unknown connections and full
// send buffers are dropped silently; the write pump closes slow clients.
func (h *Hub) ToConn(conn registry.ConnID, event model.EventType, payload any) {
	h.mu.RLock()
	c, ok := h.conns[conn]
	h.mu.RUnlock()
	if ok {
		c.trySend(Envelope{Event: event, Data: payload})
	}
}

// ToRoom sends an event to every connection subscribed to a room
func (h *Hub) ToRoom(roomID model.RoomID, event model.EventType, payload any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	env := Envelope{Event: event, Data: payload}
	for _, c := range clients {
		c.trySend(env)
	}
}
