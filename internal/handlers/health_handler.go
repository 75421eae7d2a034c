// internal/handlers/health_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/webutil"
)

// Pinger は疎通確認できる依存先 (ストアなど)
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"app":     config.AppName,
		"version": config.AppVersion,
		"status":  "ok",
	}
	if err := h.store.Ping(ctx); err != nil {
		requestLogger(r, "GetHealth").Error("Store ping failed", "error", err)
		body["status"] = "store unavailable"
		webutil.RespondWithJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, body)
}
