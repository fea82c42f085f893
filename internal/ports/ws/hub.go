package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"redking/internal/app"
)

// Hub tracks live connections by player id and implements the controller's
// outbound sink. Sends to ids without a connection (CPU players, departed
// humans) are silently discarded.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// Send implements app.Sink. A client whose outbound buffer is full is
// treated as dead: the frame is dropped and the connection closed, which
// routes the player through the normal leave path.
func (h *Hub) Send(playerID string, ev app.Event) {
	h.mu.RLock()
	c := h.clients[playerID]
	h.mu.RUnlock()
	if c == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("event marshal failed",
			zap.String("event", ev.Name),
			zap.Error(err),
		)
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("client send buffer full, dropping connection",
			zap.String("player", playerID),
		)
		c.conn.Close()
	}
}
