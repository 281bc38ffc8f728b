package ltapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/txn2/linkterm/pkg/ltapi/handlers"
	"github.com/txn2/linkterm/pkg/ltapi/middleware"
	"github.com/txn2/linkterm/pkg/ltapi/types"
)

// setupRouter creates and configures the Gin router with all routes
// URL structure:
//   - /metrics    - Prometheus exposition
//   - /api/...    - REST API endpoints
func (m *Manager) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger("/metrics"))
	r.Use(middleware.CORS())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.NoStore())
	{
		healthHandler := handlers.NewHealthHandler(m.version, m.startTime, m)
		api.GET("/health", healthHandler.Health)
		api.GET("/info", healthHandler.Info)

		v1 := api.Group("/v1")
		{
			logsHandler := handlers.NewLogsHandler(m.logs)
			v1.GET("/logs/:node", logsHandler.Recent)

			historyHandler := handlers.NewHistoryHandler(m.history)
			v1.GET("/history", historyHandler.List)

			var streamer types.EventStreamer
			if m.streamer != nil {
				streamer = m.streamer
			}
			eventsHandler := handlers.NewEventsHandler(streamer)
			v1.GET("/events", eventsHandler.Stream)
		}
	}

	return r
}
