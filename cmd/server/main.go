package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tireon003/notification-management-service/internal/analyzer"
	"github.com/Tireon003/notification-management-service/internal/handlers"
	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/Tireon003/notification-management-service/internal/repositories"
	"github.com/Tireon003/notification-management-service/internal/router"
	"github.com/Tireon003/notification-management-service/internal/services"
	"github.com/Tireon003/notification-management-service/internal/worker"
	"github.com/Tireon003/notification-management-service/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	repository, err := buildRepository(cfg, db)
	if err != nil {
		logger.Fatalf("Failed to build notification repository: %v", err)
	}

	// Assemble the analysis pipeline.
	queue := worker.NewMemoryQueue(cfg.QueueCapacity)
	textAnalyzer := analyzer.NewKeywordAnalyzer(cfg.AnalyzerMinLatency, cfg.AnalyzerMaxLatency)
	analysisWorker := worker.New(repository, queue, textAnalyzer, cfg.WorkerCount, cfg.AnalyzeTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	analysisWorker.Start(ctx)

	service := services.NewNotificationService(repository, queue, logger)
	notificationHandler := handlers.NewNotificationHandler(service, logger, cfg.StreamInterval, cfg.StreamLimit)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Setup global middleware
	router.SetupMiddleware(e, cfg.RateLimitPerSecond)

	// Setup routes and dependencies
	router.SetupRoutes(e, notificationHandler)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			logger.Infof("HTTP server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}
	analysisWorker.Stop()
	queue.Close()
}

// buildRepository constructs the repository for the configured storage driver.
// The storage handle is created here and injected; nothing holds it globally.
func buildRepository(cfg *config.Config, db *config.DB) (repositories.NotificationRepository, error) {
	switch cfg.StorageDriver {
	case "postgres":
		if err := db.Postgres.AutoMigrate(&models.Notification{}); err != nil {
			return nil, err
		}
		return repositories.NewPostgresNotificationRepository(db.Postgres), nil
	case "mongo":
		return repositories.NewMongoNotificationRepository(db.Mongo.Database(cfg.MongoDatabase)), nil
	default:
		return repositories.NewMemoryNotificationRepository(), nil
	}
}
