package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/txn2/linkterm/pkg/ltapi/types"
)

// HealthHandler handles health and info endpoints
type HealthHandler struct {
	version   string
	startTime time.Time
	info      types.ManagerInfo
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, startTime time.Time, info types.ManagerInfo) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: startTime,
		info:      info,
	}
}

// Health returns health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	})
}

// Info returns detailed runtime information
func (h *HealthHandler) Info(c *gin.Context) {
	response := types.InfoResponse{
		Version:   h.version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		StartTime: h.startTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.info != nil {
		response.Nodes = h.info.Nodes()
		response.Sink = h.info.Sink()
		response.TUIEnabled = h.info.TUIEnabled()
	}

	c.JSON(http.StatusOK, types.Response{
		Success: true,
		Data:    response,
		Meta: &types.MetaInfo{
			Timestamp: time.Now(),
		},
	})
}
