package ws

import (
	"encoding/json"
	"log"
	"sync"

	"rtchat/internal/models"
)

// Hub tracks active connections and their transport room membership. Every
// delivery happens under the hub lock, so each broadcast is a single atomic
// fan-out and all clients in a room observe room events in the same order.
// Hub implements delivery.Broadcaster.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client            // conn id -> client
	rooms   map[string]map[string]*Client // room key -> conn id -> client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// Register adds a connection.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.connID] = client
}

// Unregister drops a connection, removes it from every room, and closes its
// send channel so the write pump shuts the socket down. Safe to call for a
// connection that is already gone.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(connID)
}

// JoinRoom adds the connection to a transport room.
func (h *Hub) JoinRoom(connID string, roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if _, ok := h.rooms[roomKey]; !ok {
		h.rooms[roomKey] = make(map[string]*Client)
	}
	h.rooms[roomKey][connID] = client
}

// LeaveRoom removes the connection from a transport room.
func (h *Hub) LeaveRoom(connID string, roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomKey]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.rooms, roomKey)
		}
	}
}

// SendToConnection delivers an event to one connection, if it is local.
func (h *Hub) SendToConnection(connID string, event models.OutEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event %s: %v", event.Name, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[connID]; ok {
		h.deliver(client, payload)
	}
}

// SendToAll delivers an event to every connection, regardless of rooms.
func (h *Hub) SendToAll(event models.OutEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event %s: %v", event.Name, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		h.deliver(client, payload)
	}
}

// SendToRoom delivers an event to every connection in the room.
func (h *Hub) SendToRoom(roomKey string, event models.OutEvent) {
	h.sendToRoom(roomKey, "", event)
}

// SendToRoomExcept delivers to the room, skipping one connection.
func (h *Hub) SendToRoomExcept(roomKey string, exceptConnID string, event models.OutEvent) {
	h.sendToRoom(roomKey, exceptConnID, event)
}

func (h *Hub) sendToRoom(roomKey string, exceptConnID string, event models.OutEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal event %s: %v", event.Name, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for connID, client := range h.rooms[roomKey] {
		if connID == exceptConnID {
			continue
		}
		h.deliver(client, payload)
	}
}

// deliver hands a frame to the client's write pump without blocking. A client
// whose buffer is full cannot keep up; it is dropped on the spot, while the
// lock still excludes every other sender, so nothing can write to its channel
// after the close. Callers must hold h.mu.
func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		log.Printf("ws client too slow, dropping conn=%s", client.connID)
		h.drop(client.connID)
	}
}

// drop removes the connection from the client and room maps and closes its
// send channel. Callers must hold h.mu; the existence check makes repeated
// drops for the same connection harmless.
func (h *Hub) drop(connID string) {
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	for roomKey, conns := range h.rooms {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	close(client.send)
}
