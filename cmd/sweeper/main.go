package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/world-in-pieces/wip-backend/internal/adapter"
	"github.com/world-in-pieces/wip-backend/internal/config"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/market"
	"github.com/world-in-pieces/wip-backend/internal/providers/opensea"
	"github.com/world-in-pieces/wip-backend/internal/providers/subgraph"
	"github.com/world-in-pieces/wip-backend/internal/resync"
	"github.com/world-in-pieces/wip-backend/internal/stats"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
	"github.com/world-in-pieces/wip-backend/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Run schema migrations
	if err := schema.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database schema", zap.Error(err))
	}

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	subgraphHTTP := adapter.NewHTTPClient(cfg.Subgraph.HTTPTimeout)
	marketHTTP := adapter.NewHTTPClient(cfg.Market.HTTPTimeout)

	// Initialize providers
	landClient := subgraph.NewLandClient(subgraphHTTP, cfg.Subgraph.LandURL, jsonAdapter, cfg.Subgraph.PageSize)
	citizenClient := subgraph.NewCitizenClient(subgraphHTTP, cfg.Subgraph.CitizenURL, jsonAdapter, cfg.Subgraph.PageSize)
	openseaClient := opensea.NewClient(marketHTTP, cfg.Market.OpenSeaURL, cfg.Market.OpenSeaAPIKey)

	// Initialize country index for population stats
	countries, err := stats.NewDefaultCountryIndex()
	if err != nil {
		logger.FatalCtx(ctx, "Failed to build country index", zap.Error(err))
	}

	// Initialize services
	resyncSvc := resync.NewService(dataStore, landClient, citizenClient, clock, cfg.Worker.WorkerPoolSize)
	statsSvc := stats.NewService(dataStore, countries, clock)
	marketSvc := market.NewService(dataStore, openseaClient, cfg.Market.CollectionSlug)

	// Assemble scheduled jobs
	jobs := []sweeper.Job{
		sweeper.PopulationJob(cfg.PopulationCron, statsSvc),
		sweeper.ResyncJob(cfg.ResyncCron, resyncSvc),
		sweeper.MarketJob(cfg.MarketCron, marketSvc),
	}
	cronSweeper := sweeper.NewCronSweeper("wip-sweeper", jobs)

	logger.InfoCtx(ctx, "Initialized sweeper",
		zap.String("population_cron", cfg.PopulationCron),
		zap.String("resync_cron", cfg.ResyncCron),
		zap.String("market_cron", cfg.MarketCron),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := cronSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give in-flight jobs time to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := cronSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.Info("Sweeper stopped")
}
