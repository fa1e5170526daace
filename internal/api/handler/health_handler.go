package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoplio/review-backend/internal/api/dto"
)

// Pinger reports reachability of a dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db     Pinger
	broker Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db, broker Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, broker: broker, logger: logger}
}

// Check pings the database and the job broker. Any failing dependency turns
// the response into a 503.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	checks := map[string]string{
		"database": "ok",
		"broker":   "ok",
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Database health check failed", slog.Any("error", err))
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.broker.Ping(ctx); err != nil {
		h.logger.Warn("Broker health check failed", slog.Any("error", err))
		checks["broker"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	resp := dto.HealthResponse{Status: "ok", Checks: checks}
	if status != http.StatusOK {
		resp.Status = "degraded"
	}
	c.JSON(status, resp)
}
