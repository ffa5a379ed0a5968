package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/health"
	"github.com/mentneo/mentmine/pkg/middleware/logging"
	"github.com/mentneo/mentmine/pkg/middleware/recovery"
	"github.com/mentneo/mentmine/pkg/middleware/requestid"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/metrics"
	"github.com/mentneo/mentmine/pkg/version"
)

// ManagementServer serves health, metrics and version on a separate port.
type ManagementServer struct {
	*Server
	healthRegistry  *health.Registry
	metricsRegistry *metrics.Registry
	versionInfo     version.Info
}

// NewManagementServer creates the management server with these endpoints:
//   - /health: liveness, always 200
//   - /ready: runs the health registry, 503 when any check is unhealthy
//   - /metrics: Prometheus exposition
//   - /version: build metadata
func NewManagementServer(
	cfg config.ManagementConfig,
	log logger.Logger,
	healthRegistry *health.Registry,
	metricsRegistry *metrics.Registry,
	info version.Info,
) *ManagementServer {
	s := &ManagementServer{
		healthRegistry:  healthRegistry,
		metricsRegistry: metricsRegistry,
		versionInfo:     info,
	}

	r := gin.New()
	r.Use(
		requestid.RequestID(),
		logging.Logger(log, logging.Config{ExcludedPathPrefixes: []string{"/health", "/ready", "/metrics"}}),
		recovery.Recovery(log),
	)
	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", gin.WrapH(metricsRegistry.Handler()))
	r.GET("/version", s.handleVersion)

	s.Server = NewServer(Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}, r, log)
	return s
}

func (s *ManagementServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": health.StatusHealthy})
}

func (s *ManagementServer) handleReady(c *gin.Context) {
	result := s.healthRegistry.Check(c.Request.Context())
	if !result.IsHealthy() {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *ManagementServer) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, s.versionInfo)
}
