package server

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alnah/go-resumd"
)

// hub tracks connected editor clients and fans server events out to the
// ones holding the editor lock.
type hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func newHub(log zerolog.Logger) *hub {
	return &hub{log: log, clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug().Str("client", c.id).Int("clients", n).Msg("editor connected")
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.log.Debug().Str("client", c.id).Int("clients", n).Msg("editor disconnected")
	}
}

// broadcastFrame hands f to every active client's frame slot, where it
// replaces an older frame not yet written.
func (h *hub) broadcastFrame(f resumd.Frame) {
	data, err := json.Marshal(frameOut{Type: outFrame, Frame: f})
	if err != nil {
		h.log.Error().Err(err).Msg("encoding frame failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.isActive() {
			c.offerFrame(f.RequestID, data)
		}
	}
}

// broadcast sends v to every active client. Clients whose queue is full
// miss the message.
func (h *hub) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("encoding broadcast failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.isActive() {
			c.enqueue(data)
		}
	}
}

// count returns the number of connected clients.
func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll closes every connection; their read loops then unregister them.
func (h *hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.close()
	}
}
