package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/calcvault/pkg/http"
)

// Pinger checks that the vault store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness of the store
type HealthHandler struct {
	store  Pinger
	driver string
	logger *slog.Logger
}

// NewHealthHandler creates a health handler
func NewHealthHandler(store Pinger, driver string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, logger: logger}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("store", h.driver), slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Store: h.driver})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Store: h.driver})
}
