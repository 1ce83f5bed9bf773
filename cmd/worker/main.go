package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkarpis/channelsync/internal/config"
	"github.com/mkarpis/channelsync/internal/connector"
	"github.com/mkarpis/channelsync/internal/domain"
	"github.com/mkarpis/channelsync/internal/logger"
	"github.com/mkarpis/channelsync/internal/repository"
	"github.com/mkarpis/channelsync/internal/service"
	"github.com/mkarpis/channelsync/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "channelsync-worker",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	jobID := flag.String("job", "", "Run a single job by ID and exit")
	once := flag.Bool("once", false, "Process at most one pending job and exit")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	productRepo := repository.NewProductRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	mappingRepo := repository.NewMappingRepository(db)

	// Cancel the context on SIGINT/SIGTERM; the publisher leaves an
	// interrupted job in running state so the next worker resumes it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Shutdown signal received, stopping worker")
		cancel()
	}()

	// Initialize storage for image URL resolution (optional)
	var resolver service.URLResolver
	if cfg.Storage.AccessKey != "" {
		objectStorage, err := storage.New(&storage.Config{
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
		resolver = objectStorage
	} else {
		appLogger.Warn("Object storage not configured, storage-keyed images will be dropped from payloads")
	}

	// Register connector factories
	registry := connector.NewRegistry()
	registry.Register(domain.ChannelTypeShopify, connector.NewShopifyFactory(cfg.Publisher.RequestTimeout))
	registry.Register(domain.ChannelTypeWooCommerce, connector.NewWooCommerceFactory(cfg.Publisher.RequestTimeout))

	publisher := service.NewPublisher(
		jobRepo,
		productRepo,
		channelRepo,
		mappingRepo,
		registry,
		service.NewPayloadBuilder(resolver),
		appLogger,
		service.PublisherConfig{
			CancelCheckEvery: cfg.Publisher.CancelCheckEvery,
			ResumeMode:       service.ResumeMode(cfg.Publisher.ResumeMode),
		},
	)

	// Single-job mode
	if *jobID != "" {
		if err := publisher.Run(ctx, *jobID); err != nil {
			appLogger.WithError(err).Fatal("Job run failed")
		}
		return
	}

	appLogger.WithFields(logger.Fields{
		"poll_interval": cfg.Worker.PollInterval.String(),
		"connectors":    len(registry.Types()),
	}).Info("Worker started")

	// Single worker loop: at most one job runs at a time.
	ticker := time.NewTicker(cfg.Worker.PollInterval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			appLogger.Info("Worker stopped")
			return
		}

		job, err := jobRepo.NextPending(ctx)
		if err != nil {
			appLogger.WithError(err).Error("Failed to poll for pending jobs")
		} else if job != nil {
			if err := publisher.Run(ctx, job.ID); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.WithFields(logger.Fields{
					logger.FieldJobID: job.ID,
				}).WithError(err).Error("Job run failed")
			}
			if *once {
				return
			}
			// Check for the next pending job immediately after finishing one
			continue
		} else if *once {
			return
		}

		select {
		case <-ctx.Done():
			appLogger.Info("Worker stopped")
			return
		case <-ticker.C:
		}
	}
}
