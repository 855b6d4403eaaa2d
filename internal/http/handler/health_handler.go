package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Pinger reports whether the primary store is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Health is the basic liveness probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthDB is the readiness probe; it pings the primary store.
func (h *HealthHandler) HealthDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Error("database health check failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}
