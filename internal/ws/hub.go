package ws

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/pairchat/internal/metrics"
)

// Hub is the process-wide registry of live room subscriptions. It maps a
// room key to the set of connected clients and fans messages out to them.
// Subscriptions are ephemeral: they exist only while a connection is open.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]bool),
		logger: logger,
	}
}

// Subscribe registers the client under the room key. Re-subscribing the
// same client is a no-op.
func (h *Hub) Subscribe(roomKey string, c *Client) {
	h.mu.Lock()
	if h.rooms[roomKey] == nil {
		h.rooms[roomKey] = make(map[*Client]bool)
	}
	h.rooms[roomKey][c] = true
	h.mu.Unlock()
}

// Unsubscribe removes the client; an emptied room entry is dropped.
func (h *Hub) Unsubscribe(roomKey string, c *Client) {
	h.mu.Lock()
	if clients, ok := h.rooms[roomKey]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	h.mu.Unlock()
}

// Broadcast delivers the payload to every client subscribed to the room,
// including the sender's own connections. Delivery is best-effort: a
// client whose send buffer is full is dropped and its connection closed,
// without affecting delivery to the rest.
func (h *Hub) Broadcast(roomKey string, payload []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[roomKey]))
	for c := range h.rooms[roomKey] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(payload) {
			metrics.BroadcastDrops.Inc()
			h.logger.Warn().
				Int("user_id", c.userID).
				Str("room", roomKey).
				Msg("dropping stalled subscriber")
			h.Unsubscribe(roomKey, c)
			c.drop()
		}
	}
}
