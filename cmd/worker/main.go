// The worker runs the patent integration pipeline: it keeps the document
// store and search index in sync with the upstream source by running a
// date-range sweep on a fixed interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/patentflow/internal/config"
	"github.com/turtacn/patentflow/internal/domain/patent"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentflow/internal/integration"
	"github.com/turtacn/patentflow/internal/source/patentsview"

	pgstore "github.com/turtacn/patentflow/internal/infrastructure/database/postgres"
	rediscache "github.com/turtacn/patentflow/internal/infrastructure/database/redis"
	kafkabus "github.com/turtacn/patentflow/internal/infrastructure/messaging/kafka"
	ossearch "github.com/turtacn/patentflow/internal/infrastructure/search/opensearch"
	rawarchive "github.com/turtacn/patentflow/internal/infrastructure/storage/minio"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file (env-only when empty)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logCfg := logging.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if cfg.Log.Output != "" {
		logCfg.OutputPaths = []string{cfg.Log.Output}
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := prometheus.NewMetrics()
	go func() {
		if err := metrics.Serve(cfg.Metrics, logger); err != nil {
			logger.Error("metrics endpoint failed", logging.Err(err))
		}
	}()

	// Document store: postgres behind a redis read cache.
	if err := pgstore.RunMigrations(cfg.Database, logger); err != nil {
		return err
	}
	pg, err := pgstore.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	var store patent.DocumentStore = pgstore.NewDocStore(pg, logger)
	redisClient, err := rediscache.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without read cache", logging.Err(err))
	} else {
		defer redisClient.Close()
		store = rediscache.NewCachedStore(store, redisClient, logger)
	}

	// Search engine.
	osClient, err := ossearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		return err
	}
	if err := ossearch.NewIndexer(osClient, logger).EnsureIndex(ctx); err != nil {
		return err
	}
	engine := ossearch.NewSearcher(osClient, logger)

	// Change events and raw-page archive are best-effort collaborators.
	producer := kafkabus.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	archiver, err := rawarchive.NewArchiver(cfg.MinIO, logger)
	if err != nil {
		logger.Warn("object storage unavailable, raw pages will not be archived", logging.Err(err))
		archiver = nil
	} else if err := archiver.EnsureBucket(ctx); err != nil {
		logger.Warn("archive bucket setup failed, raw pages will not be archived", logging.Err(err))
		archiver = nil
	}

	// Pipeline.
	transformer := patentsview.NewTransformer()
	client := patentsview.NewClient(cfg.PatentsView, logger)
	loader := integration.NewLoader(store, producer, metrics, cfg.Integration.BatchSize, logger)
	service := integration.NewService(client, transformer, loader, cfg.Indexing.BatchSize, logger)

	indexer := newIndexer(client, transformer, engine, archiver, metrics, cfg, logger)

	logger.Info("worker started",
		logging.Duration("sync_interval", cfg.Indexing.SyncInterval),
		logging.Duration("sync_lookback", cfg.Indexing.SyncLookback))

	runSyncLoop(ctx, cfg, service, indexer, logger)

	logger.Info("worker stopped")
	return nil
}

func newIndexer(client *patentsview.Client, transformer *patentsview.Transformer, engine *ossearch.Searcher,
	archiver *rawarchive.Archiver, metrics *prometheus.Metrics, cfg *config.Config, logger logging.Logger) *integration.Indexer {
	if archiver == nil {
		return integration.NewIndexer(client, transformer, engine, nil, metrics,
			cfg.Indexing.BatchSize, cfg.Indexing.MaxPatents, logger)
	}
	return integration.NewIndexer(client, transformer, engine, archiver, metrics,
		cfg.Indexing.BatchSize, cfg.Indexing.MaxPatents, logger)
}

// runSyncLoop runs one sync immediately, then repeats on the configured
// interval until the context is cancelled.
func runSyncLoop(ctx context.Context, cfg *config.Config, service *integration.Service,
	indexer *integration.Indexer, logger logging.Logger) {
	sync := func() {
		end := time.Now().UTC()
		start := end.Add(-cfg.Indexing.SyncLookback)
		startDate := start.Format("2006-01-02")
		endDate := end.Format("2006-01-02")

		result, err := service.IntegrateDateRange(ctx, startDate, endDate)
		if err != nil {
			logger.Error("date range sync failed",
				logging.String("start", startDate),
				logging.String("end", endDate),
				logging.Err(err))
			return
		}
		logger.Info("date range sync finished",
			logging.Int("processed", result.TotalProcessed),
			logging.Int("succeeded", result.SuccessCount),
			logging.Int("failed", result.FailureCount))

		query := patentsview.DateRangeQuery("patent_date", startDate, endDate)
		run, err := indexer.IndexFromSource(ctx, query)
		if err != nil {
			logger.Error("indexing run failed", logging.Err(err))
			return
		}
		logger.Info("indexing run finished",
			logging.String("run_id", run.ID),
			logging.Int("indexed", run.Indexed))
	}

	sync()

	ticker := time.NewTicker(cfg.Indexing.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sync()
		}
	}
}
