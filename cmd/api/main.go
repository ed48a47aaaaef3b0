package main

import (
	"fmt"
	"minibooks/internal/config"
	"minibooks/internal/database"
	"minibooks/internal/handlers"
	"minibooks/internal/logger"
	"minibooks/internal/middleware"
	"minibooks/internal/provider"
	"minibooks/internal/services"
	"minibooks/internal/validator"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "minibooks/internal/docs" // Import swagger docs
)

// @title           Minibooks API
// @version         1.0
// @description     Minibooks is a small-business accounting backend that reconciles payment provider transactions into a bookkeeping ledger.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey PipelineKeyAuth
// @in header
// @name X-API-Key
// @description Shared key for the scheduler-driven sync and import endpoints.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	store := services.NewTransactionStore(db, auditService)
	classifier := services.NewClassifier(db)
	entryWriter := services.NewEntryWriter(db)
	reviewService := services.NewReviewService(db, entryWriter, auditService)

	// The live webhook path and the scheduled batch paths post at
	// different confidence bars.
	liveProcessor := services.NewProcessor(db, store, classifier, entryWriter, auditService,
		services.AutoPostPolicy{Threshold: appConfig.AutoPostLiveThreshold})
	batchProcessor := services.NewProcessor(db, store, classifier, entryWriter, auditService,
		services.AutoPostPolicy{Threshold: appConfig.AutoPostBatchThreshold})

	providerClient := provider.NewHTTPClient(nil,
		appConfig.ProviderAPIURL, appConfig.ProviderAPIToken, appConfig.ProviderProfileID)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	webhookHandler := handlers.NewWebhookHandler(liveProcessor, appConfig.WebhookSecret)
	syncHandler := handlers.NewSyncHandler(providerClient, batchProcessor)
	importHandler := handlers.NewImportHandler(batchProcessor)
	reviewHandler := handlers.NewReviewHandler(reviewService, classifier)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Webhook deliveries authenticate by signature, not by JWT.
	v1.POST("/provider/webhook", webhookHandler.Receive)

	// Scheduler-driven pipeline routes
	pipeline := v1.Group("/provider")
	pipeline.Use(middleware.PipelineAuthMiddleware(appConfig.PipelineAPIKey))
	pipeline.POST("/sync", syncHandler.Sync)
	pipeline.POST("/import", importHandler.Import)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Review workflow routes
	review := protected.Group("/provider/review")
	review.GET("", reviewHandler.List)
	review.GET("/stats", reviewHandler.Stats)
	review.POST("/:id/approve", reviewHandler.Approve)
	review.POST("/:id/reject", reviewHandler.Reject)
	review.POST("/bulk-approve", reviewHandler.BulkApprove)
	review.POST("/bulk-reject", reviewHandler.BulkReject)
	review.PATCH("/:id/classification", reviewHandler.UpdateClassification)
	review.GET("/:id/suggestions", reviewHandler.Suggestions)

	log.Infof("Starting Minibooks backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
