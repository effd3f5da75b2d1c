package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/devcrafted/socialflow/internal/cache"
	"github.com/devcrafted/socialflow/internal/config"
	"github.com/devcrafted/socialflow/internal/database"
	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/internal/metrics"
	"github.com/devcrafted/socialflow/internal/middleware"
	"github.com/devcrafted/socialflow/internal/storage"
	"github.com/devcrafted/socialflow/internal/tracing"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize JWT secret from config
	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(cfg.Database); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	store := database.NewStore(db)

	// Initialize cache
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Initialize storage
	stor, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize tracing
	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer("socialflow-api", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer closer.Close()
	}

	// Start metrics server
	metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Metrics server error: %v", err)
		}
	}()

	api := NewAPI(store, redisCache, stor, logger, cfg.Auth.SessionTTL)

	router := setupRouter(api, logger, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Errorf("Metrics server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func setupRouter(api *API, logger *logging.Logger, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	router.Use(middleware.RateLimit(limiter))

	// Health check
	router.GET("/health", api.healthCheck)

	sessions := &sessionValidator{store: api.store, cache: api.cache}

	v1 := router.Group("/api/v1")
	{
		// Public
		v1.POST("/users", api.createUser)
		v1.POST("/auth/login", api.login)

		authed := v1.Group("")
		authed.Use(middleware.OptionalAuth(sessions))
		{
			authed.POST("/auth/logout", api.logout)

			// Users
			authed.GET("/users/me", api.getCurrentUser)
			authed.PUT("/users/me", api.updateCurrentUser)
			authed.DELETE("/users/me", api.deleteCurrentUser)
			authed.POST("/users/me/tier", api.upgradeTier)
			authed.POST("/users/me/platforms", api.connectPlatform)
			authed.DELETE("/users/me/platforms/:platform", api.disconnectPlatform)
			authed.GET("/users/me/overview", api.getUserOverview)
			authed.GET("/users/me/report", api.getUserReport)
			authed.GET("/users/overviews", api.listUserOverviews)

			// Content
			authed.POST("/content", middleware.GenerationQuota(api.store), api.createContent)
			authed.GET("/content", api.listContent)
			authed.GET("/content/:id", api.getContent)
			authed.POST("/content/:id/schedule", api.scheduleContent)
			authed.POST("/content/:id/transition", api.transitionContent)
			authed.POST("/content/:id/variants", api.addVariant)
			authed.POST("/content/:id/media", api.uploadMedia)

			// Analytics
			authed.POST("/content/:id/analytics", api.recordAnalytics)
			authed.GET("/content/:id/analytics", api.listAnalytics)
			authed.GET("/content/:id/analytics/latest", api.latestAnalytics)
			authed.GET("/content/:id/performance", api.contentPerformance)

			// Tasks
			authed.POST("/content/:id/tasks", api.enqueueTask)
			authed.GET("/content/:id/tasks", api.listContentTasks)
			authed.GET("/tasks/:id", api.getTask)

			// Webhooks
			authed.POST("/webhooks", api.createWebhook)
			authed.GET("/webhooks", api.listWebhooks)
			authed.DELETE("/webhooks/:id", api.deleteWebhook)
		}
	}

	return router
}
