package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "llm-insurance-auth"

// PingFunc comprueba la conectividad con la base de datos.
type PingFunc func(ctx context.Context) error

// HealthHandler expone el estado del servicio.
type HealthHandler struct {
	logger *zap.Logger
	ping   PingFunc
	now    func() time.Time
}

// NewHealthHandler crea un HealthHandler. ping puede ser nil (se reporta UP sin consultar la base).
func NewHealthHandler(logger *zap.Logger, ping PingFunc) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		ping:   ping,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Health maneja GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	status := "UP"
	code := http.StatusOK
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			h.logger.Warn("health check: database unreachable", zap.Error(err))
			status = "DOWN"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": h.now().Format(time.RFC3339),
		"service":   serviceName,
	})
}

// Root maneja GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": serviceName,
		"message": "insurance auth service is running",
		"docs":    "/api/v1/auth",
	})
}
