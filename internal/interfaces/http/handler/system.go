package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kvikk/backend/internal/infrastructure/logger"
	"github.com/kvikk/backend/internal/interfaces/http/dto"
)

// Health statuses
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
	DatabaseUp           = "up"
	DatabaseDown         = "down"
)

// Pinger checks a backing store; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves health and system information
type SystemHandler struct {
	BaseHandler
	db          Pinger
	name        string
	version     string
	pingTimeout time.Duration
	startTime   time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, name, version string) *SystemHandler {
	return &SystemHandler{
		db:          db,
		name:        name,
		version:     version,
		pingTimeout: 2 * time.Second,
		startTime:   time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health pings the database. It answers 503 when the database is unreachable.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: HealthStatusOK, Database: DatabaseUp, Version: h.version}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logger.L(c.Request.Context()).Warn("Health check database ping failed", zap.Error(err))
			resp.Status = HealthStatusDegraded
			resp.Database = DatabaseDown
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetSystemInfo returns the service name, version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
