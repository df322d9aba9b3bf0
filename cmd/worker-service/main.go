package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cuongbtq/gigflow-be/internal/config"
	"github.com/cuongbtq/gigflow-be/internal/worker"
	"github.com/cuongbtq/gigflow-be/internal/worker/storage"
	"github.com/cuongbtq/gigflow-be/shared/database"
	"github.com/cuongbtq/gigflow-be/shared/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize database client
	dbClient, err := database.NewClient(cfg.Database.DatabaseClientConfig(), appLogger.Component("database"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	appLogger.Info("Database connection established",
		slog.String("driver", string(dbClient.Driver())),
	)

	// Create auditor instance
	auditor := worker.NewAuditor(&worker.Config{
		Logger:       appLogger.Component("auditor"),
		Store:        storage.NewStorage(dbClient, appLogger.Component("storage")),
		Schedule:     cfg.Audit.Schedule,
		Concurrency:  cfg.Audit.Concurrency,
		CycleTimeout: cfg.Audit.CycleTimeout,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start auditor in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := auditor.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Auditor error",
			slog.Any("error", err),
		)
		return err
	}

	// Cancel context to stop the running cycle, if any
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Audit.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		auditor.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Auditor stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Auditor shutdown timeout exceeded, forcing exit")
	}

	if report := auditor.LastReport(); report != nil {
		appLogger.Info("Last audit cycle",
			slog.Time("finished_at", report.FinishedAt),
			slog.Int("findings", len(report.Findings)),
		)
	}

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}
