package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/priceless/backend/config"
	"github.com/priceless/backend/internal/domain"
	"github.com/priceless/backend/internal/infrastructure/postgres"
	"github.com/priceless/backend/internal/observability"
	"github.com/priceless/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Priceless clustering run v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Clustering: eps=%.2f, min_samples=%d", cfg.Clustering.Eps, cfg.Clustering.MinSamples)
	log.Printf("Sync: batch_size=%d, max_retries=%d", cfg.Sync.BatchSize, cfg.Sync.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	metrics := observability.NewMetrics()
	metrics.Serve(cfg.Metrics.Port)
	log.Printf("Metrics exposed on :%s/metrics", cfg.Metrics.Port)

	catalogs, err := postgres.DiscoverCatalogs(ctx, db, cfg.Database.TableSuffix, postgres.CatalogOptions{
		BatchSize:    cfg.Sync.BatchSize,
		MaxRetries:   cfg.Sync.MaxRetries,
		RetryBackoff: cfg.Sync.RetryBackoff,
		Metrics:      metrics,
	})
	if err != nil {
		log.Fatalf("Failed to discover market tables: %v", err)
	}
	if len(catalogs) == 0 {
		log.Fatalf("No market tables found with suffix %q", cfg.Database.TableSuffix)
	}
	for _, catalog := range catalogs {
		log.Printf("Discovered market %q (table %s)", catalog.MarketID(), catalog.Table())
	}

	domainCatalogs := make([]domain.Catalog, len(catalogs))
	for i, catalog := range catalogs {
		domainCatalogs[i] = catalog
	}

	pipeline := usecase.NewPipeline(
		domainCatalogs,
		postgres.NewComparisonStore(db),
		metrics,
		usecase.PipelineConfig{
			Clustering: usecase.ClusterConfig{
				Eps:                cfg.Clustering.Eps,
				MinSamples:         cfg.Clustering.MinSamples,
				EnableDebugLogging: cfg.Clustering.EnableDebugLogging,
			},
			EnableDebugLogging: cfg.Clustering.EnableDebugLogging,
		},
	)

	report, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatalf("Clustering run failed: %v", err)
	}

	log.Printf("Run complete in %s: markets=%d (skipped %d), records=%d, names=%d, clusters=%d, noise=%d, synced=%d, comparisons=%d",
		report.Duration, report.MarketsProcessed, report.MarketsSkipped,
		report.RecordsFetched, report.DistinctNames, report.Clusters,
		report.NoisePoints, report.RecordsSynced, report.Comparisons)
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
