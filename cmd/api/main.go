package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkarpis/channelsync/internal/api"
	"github.com/mkarpis/channelsync/internal/config"
	"github.com/mkarpis/channelsync/internal/connector"
	"github.com/mkarpis/channelsync/internal/domain"
	"github.com/mkarpis/channelsync/internal/logger"
	"github.com/mkarpis/channelsync/internal/repository"
	"github.com/mkarpis/channelsync/internal/service"
	"github.com/mkarpis/channelsync/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	productRepo := repository.NewProductRepository(db)
	channelRepo := repository.NewChannelRepository(db)

	// Initialize storage for product images (optional)
	var objectStorage storage.ObjectStorage
	if cfg.Storage.AccessKey != "" {
		objectStorage, err = storage.New(&storage.Config{
			Type:      cfg.Storage.Type,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(context.Background()); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	} else {
		appLogger.Warn("Object storage not configured, image uploads disabled")
	}

	// Connector registry validates channel types at creation time; the
	// worker registers the same factories for publishing.
	registry := connector.NewRegistry()
	registry.Register(domain.ChannelTypeShopify, connector.NewShopifyFactory(cfg.Publisher.RequestTimeout))
	registry.Register(domain.ChannelTypeWooCommerce, connector.NewWooCommerceFactory(cfg.Publisher.RequestTimeout))

	// Initialize services
	jobService := service.NewJobService(jobRepo, appLogger)

	// Setup router
	router := api.SetupRouter(jobService, productRepo, channelRepo, registry, objectStorage, appLogger, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
