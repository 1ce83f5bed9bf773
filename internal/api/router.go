package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mkarpis/channelsync/internal/api/handler"
	"github.com/mkarpis/channelsync/internal/api/middleware"
	"github.com/mkarpis/channelsync/internal/config"
	"github.com/mkarpis/channelsync/internal/connector"
	"github.com/mkarpis/channelsync/internal/logger"
	"github.com/mkarpis/channelsync/internal/repository"
	"github.com/mkarpis/channelsync/internal/service"
	"github.com/mkarpis/channelsync/internal/storage"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	jobService *service.JobService,
	products *repository.ProductRepository,
	channels *repository.ChannelRepository,
	registry *connector.Registry,
	store storage.ObjectStorage,
	log *logger.Logger,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	jobHandler := handler.NewJobHandler(jobService)
	productHandler := handler.NewProductHandler(products, store)
	channelHandler := handler.NewChannelHandler(channels, registry)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Publish jobs
		v1.POST("/jobs", jobHandler.CreateJob)
		v1.GET("/jobs", jobHandler.ListJobs)
		v1.GET("/jobs/:id", jobHandler.GetJob)
		v1.POST("/jobs/:id/cancel", jobHandler.CancelJob)

		// Products
		v1.POST("/products", productHandler.CreateProduct)
		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/:id", productHandler.GetProduct)
		v1.POST("/products/:id/images", productHandler.UploadImage)

		// Channels
		v1.POST("/channels", channelHandler.CreateChannel)
		v1.GET("/channels", channelHandler.ListChannels)
	}

	return r
}
