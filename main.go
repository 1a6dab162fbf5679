package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ravicodry/dastaavej/config"
	"github.com/ravicodry/dastaavej/handler"
	"github.com/ravicodry/dastaavej/middleware"
	"github.com/ravicodry/dastaavej/pkg/logger"
	"github.com/ravicodry/dastaavej/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize services
	orderStore, err := service.NewOrderStore(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to initialize order store", "error", err)
		os.Exit(1)
	}
	defer orderStore.Close()

	var archiveSvc *service.ArchiveService
	if cfg.Archive.Enabled {
		archiveSvc, err = service.NewArchiveService(&cfg.Archive)
		if err != nil {
			slog.Error("failed to initialize deed archive", "error", err)
			os.Exit(1)
		}
		if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
	}

	geminiSvc := service.NewGeminiService(&cfg.Gemini)
	notifier := service.NewNotifier(&cfg.SMTP)
	gateway := service.NewSimulatedGateway(&cfg.Payment)
	sessions := service.NewSessionStore(&cfg.Session)

	flow := service.NewFlowService(sessions, geminiSvc, orderStore, notifier, gateway, archiveSvc, cfg)

	// Initialize handlers
	analysisHandler := handler.NewAnalysisHandler(flow)
	leadHandler := handler.NewLeadHandler(flow)
	adminHandler := handler.NewAdminHandler(cfg, orderStore)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                // Request ID for tracing
	router.Use(middleware.Recovery())                 // Panic recovery
	router.Use(middleware.RequestLogger())            // Access logging
	router.Use(corsMiddleware())                      // CORS
	router.Use(middleware.RateLimit(60, time.Minute)) // Rate limiting: 60 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/session", analysisHandler.StartSession)
		api.POST("/session/agree", analysisHandler.Agree)
		api.POST("/session/stage", analysisHandler.SelectStage)
		api.POST("/analysis", analysisHandler.Analyze)
		api.GET("/report", analysisHandler.Report)
		api.POST("/unlock", analysisHandler.Unlock)
		api.POST("/leads", leadHandler.Submit)
		api.POST("/admin/login", adminHandler.Login)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(&cfg.Auth))
	{
		admin.GET("/orders", adminHandler.ListOrders)
		admin.PUT("/orders/:id/status", adminHandler.UpdateStatus)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second, // analysis blocks on the external service
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID, X-Session-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
