package store

import (
	"fmt"
	"strings"

	"github.com/mentneo/mentmine/pkg/config"
	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/store/dynamodb"
	"github.com/mentneo/mentmine/pkg/store/firestore"
	"github.com/mentneo/mentmine/pkg/store/memory"
	"github.com/mentneo/mentmine/pkg/store/mongodb"
	"github.com/mentneo/mentmine/pkg/store/mysql"
	"github.com/mentneo/mentmine/pkg/store/postgres"
	"github.com/mentneo/mentmine/pkg/store/redis"
)

// Cosa fa: seleziona e inizializza il reader di storage in base alla config.
// Cosa NON fa: non gestisce fallback tra provider diversi.
// Esempio minimo: reader, err := store.NewReader(cfg.Database, log)
func NewReader(cfg config.DatabaseConfig, log logger.Logger) (Reader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.DatabaseTypeMemory:
		if strings.TrimSpace(cfg.FixturesFile) == "" {
			log.Warn("memory store started without fixtures")
			return memory.New(nil), nil
		}
		return asReader(memory.LoadFixtures(cfg.FixturesFile, log))
	case config.DatabaseTypeFirestore:
		return asReader(firestore.NewAdapter(firestore.Config{
			ProjectID:        cfg.ProjectID,
			CredentialsFile:  cfg.CredentialsFile,
			ConnectTimeout:   cfg.ConnectTimeout,
			OperationTimeout: cfg.QueryTimeout,
		}, log))
	case config.DatabaseTypePostgres:
		return asReader(postgres.NewPostgreSQLAdapter(postgres.Config{
			URL:             cfg.URL,
			TablePrefix:     cfg.Prefix,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			QueryTimeout:    cfg.QueryTimeout,
		}, log))
	case config.DatabaseTypeMySQL:
		return asReader(mysql.NewMySQLAdapter(mysql.Config{
			URL:             cfg.URL,
			TablePrefix:     cfg.Prefix,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			QueryTimeout:    cfg.QueryTimeout,
		}, log))
	case config.DatabaseTypeMongoDB:
		return asReader(mongodb.NewAdapter(mongodb.Config{
			URL:              cfg.URL,
			Database:         cfg.DatabaseName,
			ConnectTimeout:   cfg.ConnectTimeout,
			OperationTimeout: cfg.QueryTimeout,
		}, log))
	case config.DatabaseTypeDynamoDB:
		return asReader(dynamodb.NewAdapter(dynamodb.Config{
			Region:           cfg.Region,
			Endpoint:         cfg.Endpoint,
			AccessKeyID:      cfg.AccessKeyID,
			SecretAccessKey:  cfg.SecretAccessKey,
			SessionToken:     cfg.SessionToken,
			TablePrefix:      cfg.Prefix,
			OperationTimeout: cfg.QueryTimeout,
		}, log))
	case config.DatabaseTypeRedis:
		return asReader(redis.NewRedisAdapter(redis.Config{
			URL:              cfg.URL,
			KeyPrefix:        cfg.Prefix,
			MaxConns:         cfg.MaxConns,
			OperationTimeout: cfg.QueryTimeout,
		}, log))
	default:
		return nil, fmt.Errorf("unsupported database.type %q (supported: %s)",
			cfg.Type, strings.Join(config.SupportedDatabaseTypes, ", "))
	}
}

// asReader keeps a failed constructor from yielding a non-nil interface around a nil pointer.
func asReader[T Reader](r T, err error) (Reader, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}
