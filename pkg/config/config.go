package config

import "time"

// Database type constants
const (
	// DatabaseTypeMemory keeps collections in process, optionally seeded from a fixtures file
	DatabaseTypeMemory = "memory"
	// DatabaseTypeFirestore represents Google Cloud Firestore
	DatabaseTypeFirestore = "firestore"
	// DatabaseTypePostgres represents PostgreSQL database
	DatabaseTypePostgres = "postgres"
	// DatabaseTypeMySQL represents MySQL database
	DatabaseTypeMySQL = "mysql"
	// DatabaseTypeMongoDB represents MongoDB database
	DatabaseTypeMongoDB = "mongodb"
	// DatabaseTypeDynamoDB represents AWS DynamoDB
	DatabaseTypeDynamoDB = "dynamodb"
	// DatabaseTypeRedis stores each collection as a Redis hash
	DatabaseTypeRedis = "redis"
)

// SupportedDatabaseTypes lists every accepted database.type value.
var SupportedDatabaseTypes = []string{
	DatabaseTypeMemory,
	DatabaseTypeFirestore,
	DatabaseTypePostgres,
	DatabaseTypeMySQL,
	DatabaseTypeMongoDB,
	DatabaseTypeDynamoDB,
	DatabaseTypeRedis,
}

// Config is the root configuration structure for the content service
type Config struct {
	Service       ServiceConfig
	HTTP          HTTPConfig
	Management    ManagementConfig
	Database      DatabaseConfig
	Query         QueryConfig
	Catalog       CatalogConfig
	Observability ObservabilityConfig
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the public API server
type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ManagementConfig configures the management server
type ManagementConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig configures the document store the content is read from.
// Only the fields relevant to Type are used.
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	URL             string        `mapstructure:"url"`
	DatabaseName    string        `mapstructure:"database_name"`
	ProjectID       string        `mapstructure:"project_id"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	SessionToken    string        `mapstructure:"session_token"`
	// Prefix is prepended to table names (SQL, DynamoDB) and hash keys (Redis).
	Prefix          string        `mapstructure:"prefix"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxConns        int           `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	FixturesFile    string        `mapstructure:"fixtures_file"`
}

// QueryConfig tunes the in-memory query adapter.
type QueryConfig struct {
	ScanWarnThreshold int      `mapstructure:"scan_warn_threshold"`
	Collation         string   `mapstructure:"collation"`
	TimestampFields   []string `mapstructure:"timestamp_fields"`
}

// CatalogConfig names the collections behind the site features.
type CatalogConfig struct {
	Collections CatalogCollections `mapstructure:"collections"`
}

// CatalogCollections maps each feature to its collection name.
type CatalogCollections struct {
	Courses string `mapstructure:"courses"`
	Events  string `mapstructure:"events"`
	Reviews string `mapstructure:"reviews"`
	Team    string `mapstructure:"team"`
}

// ObservabilityConfig configures logging, metrics, and tracing
type ObservabilityConfig struct {
	LogLevel          string  `mapstructure:"log_level"`
	LogFormat         string  `mapstructure:"log_format"` // json, text
	MetricsEnabled    bool    `mapstructure:"metrics_enabled"`
	MetricsNamespace  string  `mapstructure:"metrics_namespace"`
	TracingEnabled    bool    `mapstructure:"tracing_enabled"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate"`
	TracingEndpoint   string  `mapstructure:"tracing_endpoint"`
	TracingInsecure   bool    `mapstructure:"tracing_insecure"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "mentmine",
			Environment: "production",
		},
		HTTP: HTTPConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Management: ManagementConfig{
			Enabled:      true,
			Port:         9090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Type:            DatabaseTypeMemory,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			MaxConns:        10,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			QueryTimeout:    10 * time.Second,
			Prefix:          "",
		},
		Query: QueryConfig{
			ScanWarnThreshold: 5000,
			TimestampFields:   []string{"createdAt", "updatedAt", "date"},
		},
		Catalog: CatalogConfig{
			Collections: CatalogCollections{
				Courses: "courses",
				Events:  "events",
				Reviews: "reviews",
				Team:    "team",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			MetricsEnabled:    true,
			MetricsNamespace:  "mentmine",
			TracingSampleRate: 0.1,
		},
	}
}
