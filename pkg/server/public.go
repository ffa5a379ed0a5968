package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/middleware/logging"
	"github.com/mentneo/mentmine/pkg/middleware/metrics"
	"github.com/mentneo/mentmine/pkg/middleware/recovery"
	"github.com/mentneo/mentmine/pkg/middleware/requestid"
	"github.com/mentneo/mentmine/pkg/middleware/tracing"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	obsmetrics "github.com/mentneo/mentmine/pkg/observability/metrics"
)

// PublicAPIServer serves the content API.
type PublicAPIServer struct {
	*Server
}

// NewPublicRouter builds the gin engine for the public API.
//
// Middleware order: request ID, tracing (when enabled), logging, recovery, metrics.
// reg may be nil to skip HTTP metrics.
func NewPublicRouter(api API, obsCfg config.ObservabilityConfig, reg *obsmetrics.Registry, log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestid.RequestID())
	if obsCfg.TracingEnabled {
		r.Use(tracing.Tracing("http-server"))
	}
	r.Use(logging.Logger(log, logging.Config{}), recovery.Recovery(log))
	if reg != nil {
		r.Use(metrics.Metrics(reg))
	}
	api.register(r)
	return r
}

// NewPublicAPIServer creates the public server on cfg.Port.
func NewPublicAPIServer(cfg config.HTTPConfig, obsCfg config.ObservabilityConfig, api API, reg *obsmetrics.Registry, log logger.Logger) *PublicAPIServer {
	return &PublicAPIServer{
		Server: NewServer(Config{
			Port:         cfg.Port,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		}, NewPublicRouter(api, obsCfg, reg, log), log),
	}
}
