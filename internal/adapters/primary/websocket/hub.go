package websocket

import (
	"log/slog"
	"sync"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
	"github.com/lorrc/ops-console-engine/internal/core/ports"
)

// Hub maintains the set of connected views and fans store change
// events out to them. The change feed is global: every connected view
// holds the whole ticket center, so there are no per-ticket rooms.
type Hub struct {
	clients map[*Client]bool

	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for every connected view. This method
// implements the ports.EventBroadcaster interface.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"ticket_id", event.TicketID,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("view connected", "total_connections", total)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.CloseSend()
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("view disconnected", "total_connections", total)
}

func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- event:
		default:
			// Slow consumer: drop the event rather than stall the hub.
			h.logger.Warn("client send buffer full, dropping event",
				"event_type", event.Type,
			)
		}
	}
}
