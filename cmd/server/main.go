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

	"ID-ENRICH/internal"
	"ID-ENRICH/internal/config"
	"ID-ENRICH/internal/handlers"
	"ID-ENRICH/internal/services"
	"ID-ENRICH/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database (optional, activity log only)
	if err := internal.InitDB(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize storage client based on configuration
	ctx := context.Background()
	var storageClient storage.StorageClient

	switch cfg.Storage.Type {
	case "gcs":
		log.Printf("Initializing GCS storage with bucket: %s", cfg.GCS.BucketName)
		client, err := storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath, cfg.GCS.Prefix)
		if err != nil {
			log.Fatalf("Failed to initialize GCS client: %v", err)
		}
		storageClient = client
	default:
		log.Printf("Initializing local storage at: %s", cfg.Storage.LocalPath)
		client, err := storage.NewLocalStorageClient(cfg.Storage.LocalPath)
		if err != nil {
			log.Fatalf("Failed to initialize local storage client: %v", err)
		}
		storageClient = client
	}
	defer storageClient.Close()

	// Initialize providers
	recognizer, err := services.NewRecognizer(ctx, cfg.OCR)
	if err != nil {
		log.Fatalf("Failed to initialize OCR provider: %v", err)
	}
	log.Printf("OCR provider: %s", recognizer.Name())

	llm, err := services.NewLanguageModel(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	log.Printf("LLM provider: %s (extraction %s, enrichment %s)", llm.Name(), cfg.LLM.ExtractionModel, cfg.LLM.EnrichmentModel)

	// Initialize services
	searcher := services.NewGoogleScraper(cfg.Search)
	extractor := services.NewExtractor(llm, cfg.LLM.ExtractionModel)
	enricher := services.NewEnricher(searcher, llm, cfg.LLM.EnrichmentModel, cfg.Search.ResultLimit)
	pipeline := services.NewPipeline(recognizer, extractor, enricher, cfg.Pipeline.Timeout)
	activityLogService := services.NewActivityLogService(internal.DB)

	// Initialize handlers
	extractHandler := handlers.NewExtractHandler(pipeline, storageClient)
	logsHandler := handlers.NewLogsHandler(activityLogService)

	// Initialize Gin router
	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) == 1 && cfg.Server.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}
	corsCfg.AddExposeHeaders(services.RequestIDHeader)
	r.Use(cors.New(corsCfg))

	// Activity logging middleware
	r.Use(activityLogService.LoggingMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"storage":   cfg.Storage.Type,
			"ocr":       recognizer.Name(),
			"llm":       llm.Name(),
			"database":  activityLogService.Enabled(),
		})
	})

	// Upload form and uploaded files
	r.GET("/", extractHandler.Index)
	r.POST("/", extractHandler.Upload)
	r.GET("/uploads/:filename", extractHandler.ServeUpload)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.POST("/extract", extractHandler.Extract)

		// Activity logs
		v1.GET("/logs", logsHandler.GetAllLogs)
		v1.GET("/logs/stats", logsHandler.GetLogStats)
	}

	// OCR, extraction and enrichment can take well over a minute
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.Pipeline.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s (environment: %s)", cfg.Server.Port, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Flush activity log writes still in flight
	activityLogService.Wait()

	if err := llm.Close(); err != nil {
		log.Printf("Error closing LLM client: %v", err)
	}

	if err := internal.CloseDB(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited")
}
