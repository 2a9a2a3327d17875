package http

import (
	"log/slog"
	"net/http"

	gws "github.com/gorilla/websocket"

	apierrors "dtindex/internal/errors"
	"dtindex/internal/websocket"
)

// WebSocketHandler upgrades /ws connections and attaches them to the hub
type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader *gws.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a websocket handler
func NewWebSocketHandler(hub *websocket.Hub, upgrader *gws.Upgrader, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With(slog.String("handler", "websocket")),
	}
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := websocket.ServeWS(h.hub, h.upgrader, w, r); err != nil {
		// The upgrader has already answered the request
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("type", apierrors.TypeWebSocketUpgrade))
	}
}
