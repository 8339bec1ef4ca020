package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Dosada05/live-scoring/realtime"
)

// Pinger проверяет доступность хранилища; nil для хранилища в памяти.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	hub *realtime.Hub
}

func NewHealthHandler(db Pinger, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

// HealthHandler обрабатывает GET /health
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := jsonResponse{"status": "healthy", "websocket": h.hub.Metrics()}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
			resp["database"] = err.Error()
		}
	}

	if err := writeJSON(w, status, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
