package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/live-scoring/middleware"
	"github.com/Dosada05/live-scoring/realtime"
	"github.com/Dosada05/live-scoring/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	ctx      context.Context
	hub      *realtime.Hub
	verifier *middleware.TokenVerifier
	scoring  services.ScoringService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler: ctx ограничивает жизнь соединений временем работы
// сервера, а не запроса. Пустой allowedOrigins разрешает любой Origin.
func NewWebSocketHandler(
	ctx context.Context,
	hub *realtime.Hub,
	verifier *middleware.TokenVerifier,
	scoring services.ScoringService,
	allowedOrigins []string,
	logger *slog.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:      ctx,
		hub:      hub,
		verifier: verifier,
		scoring:  scoring,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// ServeWs обрабатывает GET /ws. Токен проверяется до upgrade: без него
// соединение не открывается.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Verify(middleware.BearerToken(r))
	if err != nil {
		h.logger.InfoContext(r.Context(), "WebSocket connection rejected", slog.String("remote_addr", r.RemoteAddr), slog.Any("error", err))
		unauthorizedResponse(w, r, "a valid bearer token is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту
		h.logger.WarnContext(r.Context(), "Failed to upgrade connection", slog.String("user_id", identity.UserID), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(conn, h.hub, identity, h.scoring, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.ctx)

	h.logger.Info("WebSocket client connected", slog.String("client_id", client.ID()), slog.String("user_id", identity.UserID), slog.String("role", string(identity.Role)))
}
