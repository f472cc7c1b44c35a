package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"statedash/internal/config"
	apierrors "statedash/internal/errors"
	ws "statedash/internal/websocket"
)

// WebSocketHandler attaches browser connections to the dataset event hub
type WebSocketHandler struct {
	hub          *ws.Hub
	upgrader     *websocket.Upgrader
	cfg          config.WebSocketConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *ws.Hub, upgrader *websocket.Upgrader, cfg config.WebSocketConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		upgrader:     upgrader,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "websocket_handler")),
		errorHandler: errorHandler,
	}
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		h.errorHandler.HandleError(w, r, apierrors.ErrWebSocketUpgrade)
		return
	}

	if err := ws.ServeWS(h.hub, h.upgrader, h.cfg, w, r); err != nil {
		// The upgrader has already written the HTTP error response
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

// Stats handles GET /api/ws/stats
func (h *WebSocketHandler) Stats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.hub.Stats(),
	})
}
