package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/priceless/backend/config"
	httpDelivery "github.com/priceless/backend/internal/delivery/http"
	"github.com/priceless/backend/internal/domain"
	"github.com/priceless/backend/internal/infrastructure/cache"
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

	log.Printf("Starting Priceless Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache: size=%d, ttl=%s", cfg.Cache.Size, cfg.Cache.TTL)

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	catalogs, err := postgres.DiscoverCatalogs(ctx, db, cfg.Database.TableSuffix, postgres.CatalogOptions{
		BatchSize:    cfg.Sync.BatchSize,
		MaxRetries:   cfg.Sync.MaxRetries,
		RetryBackoff: cfg.Sync.RetryBackoff,
	})
	if err != nil {
		log.Fatalf("Failed to discover market tables: %v", err)
	}
	log.Printf("Serving %d markets", len(catalogs))

	domainCatalogs := make([]domain.Catalog, len(catalogs))
	for i, catalog := range catalogs {
		domainCatalogs[i] = catalog
	}

	matchService := usecase.NewMatchService(domainCatalogs, usecase.MatchServiceConfig{
		EnableDebugLogging: cfg.Server.Environment == "development",
	})

	resultCache := cache.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL)
	metrics := observability.NewMetrics()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(
		postgres.NewComparisonStore(db),
		matchService,
		resultCache,
		domainCatalogs,
		metrics,
	)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
