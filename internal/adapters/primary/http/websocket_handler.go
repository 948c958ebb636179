package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	wsAdapter "github.com/lorrc/ops-console-engine/internal/adapters/primary/websocket"
)

// WebSocketHandler upgrades view connections onto the change feed.
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *wsAdapter.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     makeOriginChecker(allowedOrigins),
	}

	return handler
}

func makeOriginChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = true
	}

	return func(r *http.Request) bool {
		if wildcard {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser client (tests, curl); no origin to enforce.
			return true
		}
		return allowed[origin]
	}
}

// HandleConnection upgrades the request and starts the client pumps.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, h.logger)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
