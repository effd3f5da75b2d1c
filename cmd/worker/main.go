package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devcrafted/socialflow/internal/cache"
	"github.com/devcrafted/socialflow/internal/config"
	"github.com/devcrafted/socialflow/internal/database"
	"github.com/devcrafted/socialflow/internal/dispatcher"
	"github.com/devcrafted/socialflow/internal/logging"
	"github.com/devcrafted/socialflow/internal/metrics"
	"github.com/devcrafted/socialflow/internal/platform"
	"github.com/devcrafted/socialflow/internal/queue"
	"github.com/devcrafted/socialflow/internal/tracing"
	"github.com/devcrafted/socialflow/internal/webhook"
	"github.com/devcrafted/socialflow/pkg/models"
)

// queueDepthInterval paces the queue depth gauge refresh
const queueDepthInterval = 30 * time.Second

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

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := database.NewStore(db)

	// Initialize cache
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Initialize queue
	q, err := queue.New(cfg.Queue)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	// Initialize tracing
	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer("socialflow-worker", cfg.Tracing.JaegerEndpoint)
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

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	// The dispatcher moves due tasks onto the queue and runs maintenance; the
	// executor runs them against the simulated platform
	d := dispatcher.New(store, q, redisCache, logger, cfg.Dispatcher)
	d.Start()
	defer d.Stop()

	// Webhook notifications ride on publish and failure outcomes
	notifier := webhook.NewService(store, logger)
	go notifier.RetryWorker(ctx)

	simulator := platform.NewSimulator(time.Now().UnixNano())
	executor := dispatcher.NewExecutor(store, simulator, q, logger).WithNotifier(notifier)

	taskHandler := func(task *models.ScheduledTask) error {
		return executor.Execute(ctx, task)
	}

	logger.Info("Worker started, waiting for tasks...")
	if err := q.ConsumeTasks(ctx, taskHandler); err != nil {
		logger.Fatalf("Failed to consume tasks: %v", err)
	}

	// Keep the queue depth gauge current while running
	ticker := time.NewTicker(queueDepthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopped")
			return
		case <-ticker.C:
			if depth, err := q.GetQueueDepth(); err == nil {
				metrics.TasksQueueDepth.Set(float64(depth))
			}
		}
	}
}
