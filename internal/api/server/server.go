package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/world-in-pieces/wip-backend/internal/api/middleware"
	"github.com/world-in-pieces/wip-backend/internal/api/rest"
	"github.com/world-in-pieces/wip-backend/internal/game"
	"github.com/world-in-pieces/wip-backend/internal/logger"
	"github.com/world-in-pieces/wip-backend/internal/merge"
	"github.com/world-in-pieces/wip-backend/internal/profile"
	"github.com/world-in-pieces/wip-backend/internal/stats"
)

// Config holds the server configuration
type Config struct {
	Debug         bool
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxUploadSize int64
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	game       *game.Service
	merge      *merge.Service
	stats      *stats.Service
	profile    *profile.Service
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, gameSvc *game.Service, mergeSvc *merge.Service, statsSvc *stats.Service, profileSvc *profile.Service) *Server {
	return &Server{
		config:  cfg,
		game:    gameSvc,
		merge:   mergeSvc,
		stats:   statsSvc,
		profile: profileSvc,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Create REST handler
	restHandler := rest.NewHandler(s.game, s.merge, s.stats, s.profile, s.config.MaxUploadSize)

	// Setup REST routes
	rest.SetupRoutes(router, restHandler)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
