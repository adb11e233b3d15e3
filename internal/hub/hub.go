// Package hub tracks connected operator clients and fans alert and
// response messages out to all of them.
package hub

import (
	"encoding/json"
	"sync"

	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/metrics"
)

// Envelope is the type-discriminated wire frame every message to and
// from a client travels in.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub holds the live client set. Membership is the only per-client state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	log     *logging.Logger
	metrics *metrics.Registry
}

// New creates an empty hub.
func New(log *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		log:     log.WithComponent("hub"),
		metrics: metrics.Get(),
	}
}

// Register adds a client to the broadcast set. Idempotent.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		return
	}
	h.clients[c] = true
	h.metrics.ClientsConnected.Set(float64(len(h.clients)))
	h.log.Info("client connected", "client", c.ID, "total", len(h.clients))
}

// Unregister removes a client and closes its send channel. Idempotent.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	present := h.clients[c]
	if present {
		delete(h.clients, c)
	}
	total := len(h.clients)
	h.metrics.ClientsConnected.Set(float64(total))
	h.mu.Unlock()

	// Close outside the lock; WritePump may be mid-drain.
	c.close()
	if present {
		h.log.Info("client disconnected", "client", c.ID, "total", total)
	}
}

// Broadcast serializes the message once and attempts delivery to every
// client registered at call time. Clients whose send fails are removed
// after the sweep, never while the set is being iterated.
func (h *Hub) Broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Error("broadcast marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	var failed []*Client
	for c := range h.clients {
		if err := c.trySend(b); err != nil {
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()

	h.metrics.BroadcastsSent.Inc()
	for _, c := range failed {
		h.metrics.SendFailures.Inc()
		h.log.Warn("dropping unresponsive client", "client", c.ID)
		h.Unregister(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Called last on shutdown so no client
// sees a partial message.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]bool)
	h.metrics.ClientsConnected.Set(0)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
