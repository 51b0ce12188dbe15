package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bimquery/internal/config"
	"bimquery/internal/handler"
	"bimquery/internal/repository"
	"bimquery/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("BIM Query Service starting",
		"version", Version, "build_time", BuildTime, "git_commit", GitCommit)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		sugar.Fatalw("Failed to connect to database", "error", err)
	}
	defer repo.Close()
	sugar.Infow("Connected to PostgreSQL database", "database", cfg.PostgreSQL.Database)

	// Initialize OpenAI client
	aiClient := service.NewOpenAIClient(&cfg.OpenAI, sugar)
	if cfg.OpenAI.Enabled {
		sugar.Infow("OpenAI client initialized",
			"chat_model", cfg.OpenAI.ChatModel,
			"embedding_model", cfg.OpenAI.EmbeddingModel,
			"temperature", cfg.OpenAI.ChatTemperature)
	} else {
		sugar.Warn("OpenAI is disabled - question resolution falls back to rendered facts only")
		sugar.Warn("Set OPENAI_API_KEY environment variable to enable inference")
	}

	// Initialize viewer provider client
	viewerClient := service.NewViewerClient(&cfg.Viewer, sugar)
	if cfg.Viewer.Enabled {
		sugar.Infow("Viewer provider client initialized", "base_url", cfg.Viewer.BaseURL)
	} else {
		sugar.Warn("Viewer provider is disabled - model ingest will not work")
	}

	// Initialize services
	catalogBuilder := service.NewCatalogBuilder(repo, cfg.Chat, sugar)
	queryEngine := service.NewQueryEngine(repo, sugar)
	answerSynthesizer := service.NewAnswerSynthesizer(aiClient, sugar)
	chatService := service.NewChatService(repo, aiClient, catalogBuilder, queryEngine, answerSynthesizer, cfg.Chat, sugar)
	ingestService := service.NewIngestService(repo, aiClient, viewerClient, cfg.OpenAI.EmbeddingModel, sugar)

	sugar.Info("Services initialized")

	// Initialize handlers
	chatHandler := handler.NewChatHandler(chatService, catalogBuilder)
	ingestHandler := handler.NewIngestHandler(ingestService)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "bim-query-service",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Question resolution
		apiV1.POST("/chat", chatHandler.Chat)

		// Catalog inspection
		apiV1.GET("/models/:urn/catalog", chatHandler.Catalog)

		// Model ingest
		apiV1.POST("/ingest", ingestHandler.Ingest)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	sugar.Infow("Starting server", "addr", addr)

	// Graceful shutdown
	go func() {
		if err := router.Run(addr); err != nil {
			sugar.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("Shutting down server...")
	sugar.Info("Server stopped")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}
