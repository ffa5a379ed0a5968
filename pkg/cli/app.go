package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mentneo/mentmine/pkg/catalog"
	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/health"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/metrics"
	"github.com/mentneo/mentmine/pkg/query"
	"github.com/mentneo/mentmine/pkg/server"
	"github.com/mentneo/mentmine/pkg/store"
)

// ErrStoreUnavailable marks failures to open or reach the backing store.
var ErrStoreUnavailable = errors.New("store unavailable")

// ReaderFactory opens the backing store described by cfg.
type ReaderFactory func(cfg config.DatabaseConfig, log logger.Logger) (store.Reader, error)

// App is the wired runtime shared by serve, query and healthcheck.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Reader  store.Reader
	Metrics *metrics.Registry
	Querier *query.Adapter
	Catalog *catalog.Service
	Health  *health.Registry
}

// Cosa fa: apre lo store, costruisce adapter di query, catalogo, metriche e health checks.
// Cosa NON fa: non avvia server HTTP; il chiamante deve invocare Close.
// Esempio minimo: app, err := cli.NewApp(cfg, log, store.NewReader)
func NewApp(cfg *config.Config, log logger.Logger, newReader ReaderFactory) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if newReader == nil {
		newReader = store.NewReader
	}

	reader, err := newReader(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w: %w", cfg.Database.Type, ErrStoreUnavailable, err)
	}

	reg := metrics.NewRegistry(cfg.Observability.MetricsNamespace)
	adapter, err := query.NewAdapter(reader, log, query.Options{
		TimestampFields:   cfg.Query.TimestampFields,
		Collation:         cfg.Query.Collation,
		ScanWarnThreshold: cfg.Query.ScanWarnThreshold,
		Observer:          reg,
	})
	if err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("create query adapter: %w", err)
	}

	healthRegistry := health.NewRegistry()
	healthRegistry.Register(health.NewAdapterChecker("store", reader, cfg.Database.ConnectTimeout))
	for _, name := range catalogCollections(cfg.Catalog.Collections) {
		healthRegistry.Register(health.NewCollectionChecker(reader, name, cfg.Database.QueryTimeout))
	}

	return &App{
		Config:  cfg,
		Logger:  log,
		Reader:  reader,
		Metrics: reg,
		Querier: adapter,
		Catalog: catalog.NewService(adapter, cfg.Catalog.Collections, log),
		Health:  healthRegistry,
	}, nil
}

// API returns the handler dependencies for the public server.
func (a *App) API() server.API {
	return server.API{
		Querier:     a.Querier,
		Catalog:     a.Catalog,
		Collections: catalogCollections(a.Config.Catalog.Collections),
	}
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Reader == nil {
		return nil
	}
	return a.Reader.Close()
}

func catalogCollections(c config.CatalogCollections) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 4)
	for _, name := range []string{c.Courses, c.Events, c.Reviews, c.Team} {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
