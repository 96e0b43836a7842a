// Package config provides configuration loading, defaults, and validation for
// the patentflow pipeline.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "patentflow"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = time.Hour
	DefaultRedisKeyPrefix = "patentflow"

	DefaultOpenSearchAddr        = "http://localhost:9200"
	DefaultOpenSearchBulkSize    = 500
	DefaultOpenSearchIndexPrefix = "patentflow"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "patentflow.patent-changes"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "patentflow-raw"

	DefaultPatentsViewBaseURL = "https://search.patentsview.org/api/v1"
	DefaultPatentsViewTimeout = 30 * time.Second
	DefaultPatentsViewBackoff = 2 * time.Second

	DefaultIntegrationBatchSize = 500

	DefaultIndexingBatchSize = 100
	DefaultSyncLookback      = 7 * 24 * time.Hour

	// DefaultEarliestFilingDate is the floor for relative date ranges.
	// The first US patent was granted in 1790; nothing predates it.
	DefaultEarliestFilingDate = "1790-01-01"
	DefaultSearchLimit        = 20
	DefaultSearchMaxLimit     = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsAddr = ":9090"
	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg with the pipeline default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "file://migrations"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddr}
	}
	if cfg.OpenSearch.BulkBatchSize == 0 {
		cfg.OpenSearch.BulkBatchSize = DefaultOpenSearchBulkSize
	}
	if cfg.OpenSearch.IndexPrefix == "" {
		cfg.OpenSearch.IndexPrefix = DefaultOpenSearchIndexPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 100 * time.Millisecond
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── PatentsView ───────────────────────────────────────────────────────────
	if cfg.PatentsView.BaseURL == "" {
		cfg.PatentsView.BaseURL = DefaultPatentsViewBaseURL
	}
	if cfg.PatentsView.RequestTimeout == 0 {
		cfg.PatentsView.RequestTimeout = DefaultPatentsViewTimeout
	}
	if cfg.PatentsView.RetryBackoff == 0 {
		cfg.PatentsView.RetryBackoff = DefaultPatentsViewBackoff
	}

	// ── Enhancer ──────────────────────────────────────────────────────────────
	if cfg.Enhancer.RequestTimeout == 0 {
		cfg.Enhancer.RequestTimeout = 10 * time.Second
	}

	// ── Integration ───────────────────────────────────────────────────────────
	if cfg.Integration.BatchSize == 0 {
		cfg.Integration.BatchSize = DefaultIntegrationBatchSize
	}

	// ── Indexing ──────────────────────────────────────────────────────────────
	if cfg.Indexing.BatchSize == 0 {
		cfg.Indexing.BatchSize = DefaultIndexingBatchSize
	}
	if cfg.Indexing.SyncLookback == 0 {
		cfg.Indexing.SyncLookback = DefaultSyncLookback
	}

	// ── Search ────────────────────────────────────────────────────────────────
	if cfg.Search.EarliestFilingDate == "" {
		cfg.Search.EarliestFilingDate = DefaultEarliestFilingDate
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = DefaultSearchLimit
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = DefaultSearchMaxLimit
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
