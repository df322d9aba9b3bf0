package config

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/cuongbtq/gigflow-be/shared/database"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Notification relay modes
const (
	RelayNone     = "none"
	RelayRedis    = "redis"
	RelayRabbitMQ = "rabbitmq"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Redis         RedisConfig         `yaml:"redis"`
	RabbitMQ      RabbitMQConfig      `yaml:"rabbitmq"`
	Market        MarketConfig        `yaml:"market"`
	Audit         AuditConfig         `yaml:"audit"`
	Logging       LoggingConfig       `yaml:"logging"`
	App           AppConfig           `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects a driver and holds its connection settings
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Path            string        `yaml:"path"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// NotificationsConfig holds live channel settings
type NotificationsConfig struct {
	Relay          string        `yaml:"relay"`
	BufferSize     int           `yaml:"buffer_size"`
	Keepalive      time.Duration `yaml:"keepalive"`
	IdentityHeader string        `yaml:"identity_header"`
	NameHeader     string        `yaml:"name_header"`
}

// RedisConfig holds the pub/sub relay connection
type RedisConfig struct {
	URL     string `yaml:"url"`
	Channel string `yaml:"channel"`
}

// RabbitMQConfig holds the fanout relay connection
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Durable bool   `yaml:"durable"`
}

// QueueConfig holds RabbitMQ queue configuration. An empty name lets the
// broker pick one per process.
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish settings
type PublishConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Persistent    bool          `yaml:"persistent"`
}

// MarketConfig tunes bid and hire operations
type MarketConfig struct {
	HireTimeout time.Duration `yaml:"hire_timeout"`
	PageSize    int           `yaml:"page_size"`
	MaxPageSize int           `yaml:"max_page_size"`
}

// AuditConfig holds consistency auditor settings
type AuditConfig struct {
	Schedule        string        `yaml:"schedule"`
	Concurrency     int           `yaml:"concurrency"`
	CycleTimeout    time.Duration `yaml:"cycle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file. ${VAR} references are
// expanded from the environment first.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills unset optional fields
func (c *Config) ApplyDefaults() {
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Notifications.Relay == "" {
		c.Notifications.Relay = RelayNone
	}
	if c.Notifications.BufferSize <= 0 {
		c.Notifications.BufferSize = 16
	}
	if c.Notifications.Keepalive <= 0 {
		c.Notifications.Keepalive = 25 * time.Second
	}
	if c.Notifications.IdentityHeader == "" {
		c.Notifications.IdentityHeader = "X-User-ID"
	}
	if c.Notifications.NameHeader == "" {
		c.Notifications.NameHeader = "X-User-Name"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "gigflow:notifications"
	}
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "fanout"
	}
	if c.Market.HireTimeout <= 0 {
		c.Market.HireTimeout = 5 * time.Second
	}
	if c.Market.MaxPageSize <= 0 {
		c.Market.MaxPageSize = 100
	}
	if c.Market.PageSize <= 0 {
		c.Market.PageSize = 20
	}
	if c.Audit.Schedule == "" {
		c.Audit.Schedule = "@every 5m"
	}
	if c.Audit.Concurrency <= 0 {
		c.Audit.Concurrency = 4
	}
	if c.Audit.CycleTimeout <= 0 {
		c.Audit.CycleTimeout = time.Minute
	}
	if c.Audit.ShutdownTimeout <= 0 {
		c.Audit.ShutdownTimeout = 30 * time.Second
	}
}

// ValidateAPIConfig checks the settings the api-service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	switch c.Notifications.Relay {
	case RelayNone:
	case RelayRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis url is required for the redis relay")
		}
	case RelayRabbitMQ:
		if err := c.validateRabbitMQ(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported notification relay %q", c.Notifications.Relay)
	}

	if c.Market.PageSize > c.Market.MaxPageSize {
		return fmt.Errorf("market page_size %d exceeds max_page_size %d", c.Market.PageSize, c.Market.MaxPageSize)
	}

	return nil
}

// ValidateWorkerConfig checks the settings the worker-service needs
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if _, err := cron.ParseStandard(c.Audit.Schedule); err != nil {
		return fmt.Errorf("invalid audit schedule %q: %w", c.Audit.Schedule, err)
	}

	if c.Audit.Concurrency <= 0 {
		return fmt.Errorf("audit concurrency must be greater than 0")
	}

	if c.Audit.CycleTimeout <= 0 {
		return fmt.Errorf("audit cycle_timeout must be greater than 0")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	driver, err := database.ParseDriver(c.Database.Driver)
	if err != nil {
		return err
	}

	if driver == database.DriverSQLite {
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite3")
		}
		return nil
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	return nil
}

// DatabaseClientConfig maps the section onto the shared client's config
func (d *DatabaseConfig) DatabaseClientConfig() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		Path:            d.Path,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}
