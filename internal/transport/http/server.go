package http

import (
	"bytes"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepush/internal/auth"
	"github.com/vovakirdan/wirepush/internal/config"
	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/metrics"
)

// NewServer builds the HTTP server: a websocket endpoint on the stdlib mux,
// and a gin engine for publish ingress, health and metrics.
func NewServer(router *core.Router, rooms *Rooms, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)
	engine.GET("/metrics", metricsHandler(m))

	authService := auth.NewService(router.Registry())
	publish := NewPublishHandlers(core.NewPublisher(router), logger)
	apps := engine.Group("/apps/:appId", PublishAuthMiddleware(authService, logger))
	apps.POST("/events", publish.Publish)

	// Websocket upgrades bypass gin: its response writer refuses to be hijacked.
	mux := stdhttp.NewServeMux()
	mux.Handle("GET /ws/{appId}", NewWSHandler(router, rooms, cfg.MaxMessageBytes, cfg.SendBuffer, logger))
	mux.Handle("/", engine)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func metricsHandler(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		m.WriteJSON(&buf)
		c.Data(stdhttp.StatusOK, "application/json", buf.Bytes())
	}
}
