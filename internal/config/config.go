// Package config defines all configuration structures for the patentflow
// pipeline.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// DatabaseConfig holds PostgreSQL connection parameters for the canonical
// patent document store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the read-through patent
// document cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters for the
// patent search index.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

// KafkaConfig holds Apache Kafka producer parameters for change events
// emitted after each successful upsert.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	Topic           string        `mapstructure:"topic"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	Async           bool          `mapstructure:"async"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters for
// archiving raw source pages.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// PatentsViewConfig holds connection parameters for the PatentsView
// bibliographic API.
type PatentsViewConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

// EnhancerConfig holds parameters for the optional LLM query-enhancement
// service.  A missing endpoint disables enhancement entirely; searches then
// run against the raw query text.
type EnhancerConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// IntegrationConfig holds upsert-engine tunables.
type IntegrationConfig struct {
	// BatchSize caps the number of documents per atomic write chunk.
	BatchSize int `mapstructure:"batch_size"`
}

// IndexingConfig holds bulk-indexing orchestrator tunables.
type IndexingConfig struct {
	// BatchSize is the per-page fetch size used during a bulk run.
	BatchSize int `mapstructure:"batch_size"`

	// MaxPatents caps a bulk run; 0 means index everything the source
	// reports.
	MaxPatents int `mapstructure:"max_patents"`

	// SyncInterval is the period between automatic date-range syncs run by
	// the worker daemon; 0 disables periodic syncing.
	SyncInterval time.Duration `mapstructure:"sync_interval"`

	// SyncLookback is how far back each periodic sync reaches.
	SyncLookback time.Duration `mapstructure:"sync_lookback"`
}

// SearchConfig holds search-pipeline tunables.
type SearchConfig struct {
	// EarliestFilingDate is the lower bound applied to relative date
	// ranges, formatted as YYYY-MM-DD.  No granted patent predates it.
	EarliestFilingDate string `mapstructure:"earliest_filing_date"`

	// DefaultLimit is the page size when a caller does not specify one.
	DefaultLimit int `mapstructure:"default_limit"`

	// MaxLimit caps the per-request page size.
	MaxLimit int `mapstructure:"max_limit"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// MetricsConfig holds the Prometheus exposition endpoint parameters.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire pipeline.
// Every infrastructure component and service reads its settings from the
// relevant sub-struct.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	OpenSearch  OpenSearchConfig  `mapstructure:"opensearch"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	MinIO       MinIOConfig       `mapstructure:"minio"`
	PatentsView PatentsViewConfig `mapstructure:"patentsview"`
	Enhancer    EnhancerConfig    `mapstructure:"enhancer"`
	Integration IntegrationConfig `mapstructure:"integration"`
	Indexing    IndexingConfig    `mapstructure:"indexing"`
	Search      SearchConfig      `mapstructure:"search"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// OpenSearch
	if len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must contain at least one node address")
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("config: kafka.topic is required")
	}

	// PatentsView
	if c.PatentsView.BaseURL == "" {
		return fmt.Errorf("config: patentsview.base_url is required")
	}

	// Integration
	if c.Integration.BatchSize < 1 {
		return fmt.Errorf("config: integration.batch_size must be >= 1, got %d", c.Integration.BatchSize)
	}

	// Indexing
	if c.Indexing.BatchSize < 1 {
		return fmt.Errorf("config: indexing.batch_size must be >= 1, got %d", c.Indexing.BatchSize)
	}
	if c.Indexing.MaxPatents < 0 {
		return fmt.Errorf("config: indexing.max_patents must be >= 0, got %d", c.Indexing.MaxPatents)
	}

	// Search
	if _, err := time.Parse("2006-01-02", c.Search.EarliestFilingDate); err != nil {
		return fmt.Errorf("config: search.earliest_filing_date %q is not a valid YYYY-MM-DD date", c.Search.EarliestFilingDate)
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("config: search.default_limit must be >= 1, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("config: search.max_limit %d must be >= search.default_limit %d", c.Search.MaxLimit, c.Search.DefaultLimit)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
