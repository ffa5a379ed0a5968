package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/health"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/metrics"
	"github.com/mentneo/mentmine/pkg/observability/tracing"
	"github.com/mentneo/mentmine/pkg/version"
)

// LifecycleHook defines a named shutdown action.
type LifecycleHook struct {
	Name string
	Fn   func(context.Context) error
}

// RunOptions defines inputs for building and running the HTTP servers.
type RunOptions struct {
	Config *config.Config
	API    API
	Logger logger.Logger

	HealthRegistry  *health.Registry
	MetricsRegistry *metrics.Registry

	ShutdownHooks       []LifecycleHook
	ShutdownHookTimeout time.Duration
}

// HTTPServers groups the runtime public and management servers.
type HTTPServers struct {
	Public     *PublicAPIServer
	Management *ManagementServer
}

// BuildHTTPServers constructs the servers from opts. The management server is
// omitted when disabled in config.
func BuildHTTPServers(opts *RunOptions) (*HTTPServers, error) {
	if opts == nil || opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.API.Querier == nil || opts.API.Catalog == nil {
		return nil, errors.New("querier and catalog are required")
	}
	if opts.HealthRegistry == nil {
		opts.HealthRegistry = health.NewRegistry()
	}
	if opts.MetricsRegistry == nil && (opts.Config.Observability.MetricsEnabled || opts.Config.Management.Enabled) {
		opts.MetricsRegistry = metrics.NewRegistry(opts.Config.Observability.MetricsNamespace)
	}

	var httpMetrics *metrics.Registry
	if opts.Config.Observability.MetricsEnabled {
		httpMetrics = opts.MetricsRegistry
	}

	servers := &HTTPServers{
		Public: NewPublicAPIServer(opts.Config.HTTP, opts.Config.Observability, opts.API, httpMetrics, opts.Logger),
	}
	if opts.Config.Management.Enabled {
		servers.Management = NewManagementServer(
			opts.Config.Management,
			opts.Logger,
			opts.HealthRegistry,
			opts.MetricsRegistry,
			version.Current(resolveServiceName(opts.Config)),
		)
	}
	return servers, nil
}

// RunHTTPServers starts the servers and blocks until ctx is cancelled or one
// of them fails; the other is then stopped too. Shutdown hooks always run.
func RunHTTPServers(ctx context.Context, servers *HTTPServers, opts *RunOptions) error {
	if servers == nil || servers.Public == nil {
		return errors.New("servers and public server are required")
	}
	if opts == nil || opts.Logger == nil || opts.Config == nil {
		return errors.New("config and logger are required")
	}

	versionInfo := version.Current(resolveServiceName(opts.Config))
	opts.Logger.Info("application version metadata",
		"service", versionInfo.Service,
		"version", versionInfo.Version,
		"commit", versionInfo.Commit,
		"build_time", versionInfo.BuildTime,
	)

	defer func() {
		if shutdownErr := runShutdownHooks(opts); shutdownErr != nil {
			opts.Logger.Error("shutdown hooks completed with errors", "error", shutdownErr)
		}
	}()

	tracerProvider, err := tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    versionInfo.Service,
		ServiceVersion: versionInfo.Version,
		Environment:    normalizeEnvironment(opts.Config.Service.Environment),
		Endpoint:       opts.Config.Observability.TracingEndpoint,
		Insecure:       opts.Config.Observability.TracingInsecure,
		SampleRate:     opts.Config.Observability.TracingSampleRate,
		Enabled:        opts.Config.Observability.TracingEnabled,
	})
	if err != nil {
		return fmt.Errorf("initialize tracing provider: %w", err)
	}
	defer shutdownTracerProvider(tracerProvider, opts.Logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverCount := 1
	if servers.Management != nil {
		serverCount = 2
	}

	errCh := make(chan error, serverCount)
	go func() { errCh <- servers.Public.Start(runCtx) }()
	if servers.Management != nil {
		go func() { errCh <- servers.Management.Start(runCtx) }()
	}

	var firstErr error
	for idx := 0; idx < serverCount; idx++ {
		currentErr := <-errCh
		if currentErr != nil && firstErr == nil {
			firstErr = currentErr
			cancel()
		}
	}
	return firstErr
}

func shutdownTracerProvider(provider *tracing.TracerProvider, log logger.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown tracing provider", "error", err)
	}
}

func normalizeEnvironment(env string) string {
	trimmed := strings.TrimSpace(env)
	if trimmed == "" {
		return version.Unknown
	}
	return trimmed
}

func resolveServiceName(cfg *config.Config) string {
	if cfg != nil {
		if trimmed := strings.TrimSpace(cfg.Service.Name); trimmed != "" {
			return trimmed
		}
	}
	return version.Unknown
}

func runShutdownHooks(opts *RunOptions) error {
	if len(opts.ShutdownHooks) == 0 {
		return nil
	}

	timeout := opts.ShutdownHookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var errs []error
	for _, hook := range opts.ShutdownHooks {
		if hook.Fn == nil {
			continue
		}
		name := strings.TrimSpace(hook.Name)
		if name == "" {
			name = "unnamed"
		}
		opts.Logger.Info("shutdown hook start", "hook", name)

		hookCtx, cancel := context.WithTimeout(context.Background(), timeout)
		err := hook.Fn(hookCtx)
		cancel()

		if err != nil {
			opts.Logger.Error("shutdown hook failed", "hook", name, "error", err)
			errs = append(errs, fmt.Errorf("shutdown hook %q failed: %w", name, err))
			continue
		}
		opts.Logger.Info("shutdown hook complete", "hook", name)
	}
	return errors.Join(errs...)
}
