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
	"github.com/world-in-pieces/wip-backend/internal/api/server"
	"github.com/world-in-pieces/wip-backend/internal/config"
	"github.com/world-in-pieces/wip-backend/internal/game"
	"github.com/world-in-pieces/wip-backend/internal/imagestore"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/merge"
	"github.com/world-in-pieces/wip-backend/internal/profile"
	"github.com/world-in-pieces/wip-backend/internal/providers/ethereum"
	"github.com/world-in-pieces/wip-backend/internal/providers/subgraph"
	"github.com/world-in-pieces/wip-backend/internal/resync"
	"github.com/world-in-pieces/wip-backend/internal/stats"
	"github.com/world-in-pieces/wip-backend/internal/store"
	"github.com/world-in-pieces/wip-backend/internal/store/schema"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting World in Pieces API")

	// Connect to database. TranslateError turns driver duplicate-key
	// failures into gorm.ErrDuplicatedKey, which the store maps onto
	// domain errors.
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
	fs := adapter.NewFileSystem()
	jsonAdapter := adapter.NewJSON()
	imageCodec := adapter.NewImageCodec()
	httpClient := adapter.NewHTTPClient(cfg.Subgraph.HTTPTimeout)

	// Connect to Ethereum for PIECE balance reads
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Ethereum RPC", zap.Error(err), zap.String("rpc_url", cfg.Ethereum.RPCURL))
	}
	defer ethClient.Close()
	pieceToken, err := ethereum.NewPieceTokenReader(ethClient, cfg.Ethereum.PieceTokenAddress)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to initialize PIECE token reader", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to Ethereum", zap.String("piece_token", cfg.Ethereum.PieceTokenAddress))

	// Initialize subgraph clients
	landClient := subgraph.NewLandClient(httpClient, cfg.Subgraph.LandURL, jsonAdapter, cfg.Subgraph.PageSize)
	citizenClient := subgraph.NewCitizenClient(httpClient, cfg.Subgraph.CitizenURL, jsonAdapter, cfg.Subgraph.PageSize)

	// Initialize image storage
	images, err := imagestore.NewFileStore(fs, imageCodec, cfg.Images.Dir, cfg.Images.BaseURL, cfg.Images.MiniSize)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to initialize image store", zap.Error(err), zap.String("dir", cfg.Images.Dir))
	}

	// Initialize country index for population stats
	countries, err := stats.NewDefaultCountryIndex()
	if err != nil {
		logger.FatalCtx(ctx, "Failed to build country index", zap.Error(err))
	}

	// Initialize services
	resyncSvc := resync.NewService(dataStore, landClient, citizenClient, clock, cfg.Worker.WorkerPoolSize)
	gameSvc := game.NewService(dataStore, resyncSvc, pieceToken, clock, cfg.Civilization)
	mergeSvc := merge.NewService(dataStore, landClient, images)
	statsSvc := stats.NewService(dataStore, countries, clock)
	profileSvc := profile.NewService(dataStore)

	// Create server config
	serverConfig := server.Config{
		Debug:         cfg.Debug,
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:  time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:   time.Duration(cfg.Server.IdleTimeout) * time.Second,
		MaxUploadSize: cfg.Images.MaxFileSize,
	}

	// Create and start server
	srv := server.New(serverConfig, gameSvc, mergeSvc, statsSvc, profileSvc)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
