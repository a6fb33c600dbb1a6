package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"chemviz/internal/config"
	apierrors "chemviz/internal/errors"
	"chemviz/internal/infrastructure"
)

// Handler upgrades HTTP requests and attaches the connection to a hub.
type Handler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	timing       Timing
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewHandler builds the /ws endpoint. Requests without an Origin header are
// accepted; otherwise the origin must be listed in allowedOrigins ("*" allows all).
// Failed handshakes are answered with a problem document.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *Handler {
	logger = infrastructure.WithComponent(logger, "websocket.handler")

	h := &Handler{
		hub:          hub,
		timing:       Timing{PingPeriod: cfg.PingPeriod, PongWait: cfg.PongWait},
		errorHandler: errorHandler,
		logger:       logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			logger.WarnContext(r.Context(), "websocket origin rejected",
				slog.String("origin", origin))
			return false
		},
		Error: h.upgradeError,
	}
	return h
}

// ServeHTTP performs the upgrade and starts the client pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Upgrade answers failures through upgradeError.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	client := NewClient(h.hub, WrapConn(conn), infrastructure.GetTraceID(ctx), h.timing, h.logger)
	h.hub.Register(client)

	h.logger.InfoContext(ctx, "websocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	h.errorHandler.HandleError(w, r, apierrors.WebSocketUpgradeError(status, reason))
}
