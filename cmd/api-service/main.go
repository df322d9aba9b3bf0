package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cuongbtq/gigflow-be/internal/api/handler"
	"github.com/cuongbtq/gigflow-be/internal/api/router"
	"github.com/cuongbtq/gigflow-be/internal/api/storage"
	"github.com/cuongbtq/gigflow-be/internal/config"
	"github.com/cuongbtq/gigflow-be/internal/market"
	"github.com/cuongbtq/gigflow-be/internal/notify"
	"github.com/cuongbtq/gigflow-be/shared/database"
	"github.com/cuongbtq/gigflow-be/shared/logger"
	"github.com/cuongbtq/gigflow-be/shared/rabbitmq"
	"github.com/cuongbtq/gigflow-be/shared/redis"
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
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database client
	dbClient, err := database.NewClient(cfg.Database.DatabaseClientConfig(), appLogger.Component("database"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	if cfg.Database.AutoMigrate {
		if err := dbClient.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	appLogger.Info("Database connection established",
		slog.String("driver", string(dbClient.Driver())),
	)

	// Initialize notification relay
	relay, closeRelay, err := initRelay(ctx, cfg, appLogger.Component("relay"))
	if err != nil {
		return fmt.Errorf("failed to initialize notification relay: %w", err)
	}
	defer closeRelay()

	bus := notify.NewBus(notify.NewRegistry(), relay, appLogger.Component("notify"))
	busErr := make(chan error, 1)
	go func() {
		busErr <- bus.Run(ctx)
	}()

	service := market.NewService(market.Config{
		Store:       storage.NewStorage(dbClient, appLogger.Component("storage")),
		Notifier:    bus,
		Logger:      appLogger.Component("market"),
		HireTimeout: cfg.Market.HireTimeout,
		PageSize:    cfg.Market.PageSize,
		MaxPageSize: cfg.Market.MaxPageSize,
	})

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, service, bus, dbClient)

	// Create HTTP server. WriteTimeout stays at zero for notification streams
	// unless configured.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.String("relay", cfg.Notifications.Relay),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		return err
	case err := <-busErr:
		appLogger.Error("Notification relay stopped", slog.Any("error", err))
		return err
	}

	// Canceling the base context ends open notification streams so Shutdown
	// does not wait on them.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
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

// initRelay connects the configured cross-process relay. The returned closer
// is always safe to call.
func initRelay(ctx context.Context, cfg *config.Config, relayLogger *slog.Logger) (notify.Relay, func(), error) {
	switch cfg.Notifications.Relay {
	case config.RelayRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.URL, relayLogger)
		if err != nil {
			return nil, func() {}, err
		}
		closer := func() {
			if err := client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
				relayLogger.Warn("Failed to close Redis client", slog.Any("error", err))
			}
		}
		return notify.NewRedisRelay(client, cfg.Redis.Channel, relayLogger), closer, nil

	case config.RelayRabbitMQ:
		client, err := initRabbitMQ(&cfg.RabbitMQ, relayLogger)
		if err != nil {
			return nil, func() {}, err
		}
		closer := func() {
			if err := client.Close(); err != nil {
				relayLogger.Warn("Failed to close RabbitMQ client", slog.Any("error", err))
			}
		}
		return notify.NewRabbitRelay(client, cfg.App.Name, relayLogger), closer, nil

	default:
		return nil, func() {}, nil
	}
}

// initRabbitMQ binds an exclusive, broker-named queue to the fanout exchange so
// every api-service process receives every event
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:              cfg.Host,
		Port:              cfg.Port,
		User:              cfg.User,
		Password:          cfg.Password,
		VHost:             cfg.VHost,
		ExchangeName:      cfg.Exchange.Name,
		ExchangeType:      cfg.Exchange.Type,
		ExchangeDurable:   cfg.Exchange.Durable,
		QueueName:         cfg.Queue.Name,
		QueueDurable:      cfg.Queue.Durable,
		QueueAutoDelete:   true,
		QueueExclusive:    true,
		RoutingKey:        cfg.RoutingKey,
		RetryAttempts:     cfg.Connection.RetryAttempts,
		RetryInterval:     cfg.Connection.RetryInterval,
		Heartbeat:         cfg.Connection.Heartbeat,
		Persistent:        cfg.Publish.Persistent,
		PublishRetries:    cfg.Publish.RetryAttempts,
		PublishRetryDelay: cfg.Publish.RetryInterval,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, service *market.Service, bus *notify.Bus, dbClient *database.Client) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize handler dependencies
	handlerDeps := &handler.Dependencies{
		Logger:         logger,
		Service:        service,
		Bus:            bus,
		DBClient:       dbClient,
		ServiceName:    cfg.App.Name,
		IdentityHeader: cfg.Notifications.IdentityHeader,
		NameHeader:     cfg.Notifications.NameHeader,
		BufferSize:     cfg.Notifications.BufferSize,
		Keepalive:      cfg.Notifications.Keepalive,
	}

	// Setup router
	return router.SetupRouter(handlerDeps)
}
