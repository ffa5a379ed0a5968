package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/tracing"
	"github.com/mentneo/mentmine/pkg/query"
	"github.com/mentneo/mentmine/pkg/store/codec"
)

// MySQLAdapter reads collections stored as MySQL tables with the layout
// (id VARCHAR PRIMARY KEY, data JSON).
type MySQLAdapter struct {
	db     *sql.DB
	logger logger.Logger
	config Config
}

// Config holds MySQL configuration.
type Config struct {
	URL             string
	TablePrefix     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
}

// Cosa fa: inizializza un adapter MySQL con validazione del DSN e ping iniziale.
// Cosa NON fa: non esegue migrazioni schema né provisioning database.
// Esempio minimo: adapter, err := mysql.NewMySQLAdapter(cfg, log)
func NewMySQLAdapter(cfg Config, log logger.Logger) (*MySQLAdapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	dsn, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql DSN: %w", err)
	}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping mysql database: %w", err)
	}

	log.Info("MySQL connection established",
		"database", dsn.DBName,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"conn_max_lifetime", cfg.ConnMaxLifetime,
		"conn_max_idle_time", cfg.ConnMaxIdleTime,
	)
	return newAdapter(db, cfg, log), nil
}

func newAdapter(db *sql.DB, cfg Config, log logger.Logger) *MySQLAdapter {
	return &MySQLAdapter{db: db, logger: log, config: cfg}
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// FetchAll reads every row of the collection's table, ordered by id.
func (a *MySQLAdapter) FetchAll(ctx context.Context, collection string) ([]query.Record, error) {
	table := a.config.TablePrefix + collection
	if err := codec.ValidateCollectionName(table); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartStoreSpan(ctx, "mysql", collection)
	defer span.End()

	opCtx, cancel := a.withQueryTimeout(ctx)
	defer cancel()

	rows, err := a.db.QueryContext(opCtx, fmt.Sprintf("SELECT id, data FROM %s ORDER BY id", quoteIdentifier(table)))
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	records, err := codec.ScanRows(rows, table)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return records, nil
}

func (a *MySQLAdapter) Ping(ctx context.Context) error { return a.db.PingContext(ctx) }

func (a *MySQLAdapter) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Error("MySQL health check failed", "error", err)
		return fmt.Errorf("mysql health check failed: %w", err)
	}
	return nil
}

func (a *MySQLAdapter) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close mysql connection: %w", err)
	}
	return nil
}

func (a *MySQLAdapter) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.config.QueryTimeout)
}
