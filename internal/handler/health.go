package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	statusOK       = "ok"
	statusError    = "error"
	statusDisabled = "disabled"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts clients whose Ping has another shape, such as go-redis.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	db     Pinger
	redis  Pinger
	logger *zap.Logger
}

// NewHealthHandler accepts nil for dependencies the current configuration does not use.
func NewHealthHandler(db Pinger, redis Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: logger.Named("HealthHandler"),
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	dbStatus := h.ping(c.Request.Context(), h.db, "database")
	redisStatus := h.ping(c.Request.Context(), h.redis, "redis")

	body := gin.H{
		"status": statusOK,
		"dependencies": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	}

	if dbStatus == statusError || redisStatus == statusError {
		body["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}

func (h *HealthHandler) ping(ctx context.Context, p Pinger, name string) string {
	if p == nil {
		return statusDisabled
	}
	if err := p.Ping(ctx); err != nil {
		h.logger.Error("Health check: ping failed", zap.String("dependency", name), zap.Error(err))
		return statusError
	}
	return statusOK
}
