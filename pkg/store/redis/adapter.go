package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/observability/tracing"
	"github.com/mentneo/mentmine/pkg/query"
	"github.com/mentneo/mentmine/pkg/store/codec"
)

// Client is the subset of the go-redis API the adapter uses.
type Client interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisAdapter reads collections kept as Redis hashes: one hash per
// collection under KeyPrefix+collection, field = document id, value = JSON document.
type RedisAdapter struct {
	client Client
	logger logger.Logger
	config Config
}

// Config holds Redis connection configuration
type Config struct {
	URL              string
	KeyPrefix        string
	MaxConns         int
	OperationTimeout time.Duration
}

// NewRedisAdapter creates a new Redis adapter with connection pooling
func NewRedisAdapter(cfg Config, log logger.Logger) (*RedisAdapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = cfg.MaxConns
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = cfg.OperationTimeout
	opts.WriteTimeout = cfg.OperationTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info("Redis connection established",
		"max_conns", cfg.MaxConns,
		"operation_timeout", cfg.OperationTimeout,
		"key_prefix", cfg.KeyPrefix,
	)

	return NewRedisAdapterWithClient(client, cfg, log), nil
}

// NewRedisAdapterWithClient wraps an existing client without probing it.
func NewRedisAdapterWithClient(client Client, cfg Config, log logger.Logger) *RedisAdapter {
	return &RedisAdapter{client: client, logger: log, config: cfg}
}

// Key returns the hash key holding collection.
func (a *RedisAdapter) Key(collection string) string {
	return a.config.KeyPrefix + collection
}

// FetchAll reads the collection hash. Records are ordered by id since hash
// field order is unspecified.
func (a *RedisAdapter) FetchAll(ctx context.Context, collection string) ([]query.Record, error) {
	ctx, span := tracing.StartStoreSpan(ctx, "redis", collection)
	defer span.End()

	key := a.Key(collection)
	fields, err := a.client.HGetAll(ctx, key).Result()
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to read hash %s: %w", key, err)
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]query.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := codec.DecodeJSON(id, []byte(fields[id]))
		if err != nil {
			tracing.RecordError(span, err)
			return nil, fmt.Errorf("hash %s: %w", key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ping verifies the Redis connection is alive
func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// HealthCheck verifies the Redis connection is healthy with a timeout
func (a *RedisAdapter) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := a.Ping(ctx); err != nil {
		a.logger.Error("Redis health check failed", "error", err)
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close gracefully closes the Redis connection
func (a *RedisAdapter) Close() error {
	a.logger.Info("closing Redis connection")
	if err := a.client.Close(); err != nil {
		a.logger.Error("failed to close Redis connection", "error", err)
		return fmt.Errorf("failed to close redis connection: %w", err)
	}
	return nil
}
