package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dosada05/live-scoring/models"
)

const metricsInterval = 30 * time.Second

// Envelope is the wire frame in both directions: {"event": ..., "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// encodeMessage frames a message for the wire. A models.Broadcast travels
// under its own type as the event name.
func encodeMessage(message interface{}) ([]byte, error) {
	switch m := message.(type) {
	case []byte:
		return m, nil
	case models.Broadcast:
		return json.Marshal(outbound{Event: m.Type, Data: m})
	case *models.Broadcast:
		return json.Marshal(outbound{Event: m.Type, Data: m})
	case outbound:
		return json.Marshal(m)
	}
	return json.Marshal(message)
}

// Hub держит комнаты матчей. Клиент может состоять в нескольких комнатах.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}
	logger  *slog.Logger

	messagesSent    atomic.Int64
	slowDisconnects atomic.Int64
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]map[string]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Run periodically logs hub metrics and disconnects every client when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-ticker.C:
			m := h.Metrics()
			h.logger.Info("WebSocket hub metrics",
				slog.Int("clients", m.Clients),
				slog.Int("rooms", m.Rooms),
				slog.Int64("messages_sent", m.MessagesSent),
				slog.Int64("slow_disconnects", m.SlowDisconnects),
			)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.closeSend()
	}
	h.clients = make(map[*Client]map[string]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.logger.Info("WebSocket hub stopped")
}

// Register adds a connected client that is not in any room yet.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
	}
}

// Join adds c to the room. Joining twice is a no-op.
func (h *Hub) Join(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	memberships, ok := h.clients[c]
	if !ok {
		return
	}
	if _, ok := memberships[roomID]; ok {
		return
	}
	memberships[roomID] = struct{}{}

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[roomID] = room
	}
	room[c] = struct{}{}
	h.logger.Debug("Client joined room", slog.String("client_id", c.id), slog.String("room", roomID), slog.Int("room_size", len(room)))
}

func (h *Hub) Leave(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if memberships, ok := h.clients[c]; ok {
		delete(memberships, roomID)
	}
	h.removeFromRoom(c, roomID)
}

func (h *Hub) removeFromRoom(c *Client, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// RemoveClient drops c from all rooms and closes its send queue. Safe to call
// more than once.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	memberships, ok := h.clients[c]
	if !ok {
		return
	}
	for roomID := range memberships {
		h.removeFromRoom(c, roomID)
	}
	delete(h.clients, c)
	c.closeSend()
	h.logger.Debug("Client removed", slog.String("client_id", c.id), slog.Int("rooms", len(memberships)))
}

// BroadcastToRoom encodes message once and enqueues it for every client in
// the room without blocking. Clients whose queue is full are disconnected.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) {
	data, err := encodeMessage(message)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", slog.String("room", roomID), slog.Any("error", err))
		return
	}
	h.deliver(roomID, data)
}

func (h *Hub) deliver(roomID string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.rooms[roomID] {
		if c.trySend(data) {
			h.messagesSent.Add(1)
			continue
		}
		slow = append(slow, c)
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.slowDisconnects.Add(1)
		h.logger.Warn("Disconnecting slow client", slog.String("client_id", c.id), slog.String("room", roomID))
		h.RemoveClient(c)
	}
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type Metrics struct {
	Clients         int   `json:"clients"`
	Rooms           int   `json:"rooms"`
	MessagesSent    int64 `json:"messages_sent"`
	SlowDisconnects int64 `json:"slow_disconnects"`
}

func (h *Hub) Metrics() Metrics {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Metrics{
		Clients:         len(h.clients),
		Rooms:           len(h.rooms),
		MessagesSent:    h.messagesSent.Load(),
		SlowDisconnects: h.slowDisconnects.Load(),
	}
}
