package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Storefront StorefrontConfig
	History    HistoryConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Messaging  MessagingConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// StorefrontConfig holds the remote endpoints and refresh cadence
type StorefrontConfig struct {
	CatalogURL             string        // published spreadsheet CSV export
	SubmitURL              string        // form-handling script endpoint
	RefreshIntervalMinutes int           // default 2
	HTTPTimeout            time.Duration // per request to either endpoint
	MaxCatalogBytes        int64
	AutoRefresh            bool
}

// RefreshInterval returns the configured refresh period
func (s StorefrontConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMinutes) * time.Minute
}

// History backends
const (
	HistoryBackendMemory   = "memory"
	HistoryBackendSQLite   = "sqlite"
	HistoryBackendPostgres = "postgres"
	HistoryBackendRedis    = "redis"
	HistoryBackendS3       = "s3"
)

// HistoryConfig selects where past orders are kept
type HistoryConfig struct {
	Backend    string
	Key        string // name of the single record holding the order array
	SQLitePath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	Prefix       string
}

// MessagingConfig holds RabbitMQ settings for order events
type MessagingConfig struct {
	Enabled    bool
	URL        string
	Exchange   string
	RoutingKey string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_STOREFRONT_CATALOG_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need an explicit viper default
	v.SetDefault("storefront.auto_refresh", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Storefront: StorefrontConfig{
			CatalogURL:             v.GetString("storefront.catalog_url"),
			SubmitURL:              v.GetString("storefront.submit_url"),
			RefreshIntervalMinutes: v.GetInt("storefront.refresh_interval_minutes"),
			HTTPTimeout:            v.GetDuration("storefront.http_timeout"),
			MaxCatalogBytes:        v.GetInt64("storefront.max_catalog_bytes"),
			AutoRefresh:            v.GetBool("storefront.auto_refresh"),
		},
		History: HistoryConfig{
			Backend:    v.GetString("history.backend"),
			Key:        v.GetString("history.key"),
			SQLitePath: v.GetString("history.sqlite_path"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
			Prefix:       v.GetString("storage.prefix"),
		},
		Messaging: MessagingConfig{
			Enabled:    v.GetBool("messaging.enabled"),
			URL:        v.GetString("messaging.url"),
			Exchange:   v.GetString("messaging.exchange"),
			RoutingKey: v.GetString("messaging.routing_key"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 45 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Storefront.RefreshIntervalMinutes == 0 {
		cfg.Storefront.RefreshIntervalMinutes = 2
	}
	if cfg.Storefront.HTTPTimeout == 0 {
		cfg.Storefront.HTTPTimeout = 30 * time.Second
	}
	if cfg.Storefront.MaxCatalogBytes == 0 {
		cfg.Storefront.MaxCatalogBytes = 10 << 20 // 10MB
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = HistoryBackendSQLite
	}
	if cfg.History.Key == "" {
		cfg.History.Key = "pastOrders"
	}
	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = "storefront.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "storefront:"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "storefront/"
	}
	if cfg.Messaging.Exchange == "" {
		cfg.Messaging.Exchange = "storefront.events"
	}
	if cfg.Messaging.RoutingKey == "" {
		cfg.Messaging.RoutingKey = "order.submitted"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

// validate performs validation on the configuration. Missing storefront
// endpoints are not an error here; they surface when an operation needs them.
func (c *Config) validate() error {
	if c.Storefront.RefreshIntervalMinutes < 0 {
		return fmt.Errorf("storefront.refresh_interval_minutes must be positive")
	}
	if c.Storefront.MaxCatalogBytes < 0 {
		return fmt.Errorf("storefront.max_catalog_bytes cannot be negative")
	}

	switch c.History.Backend {
	case HistoryBackendMemory, HistoryBackendSQLite, HistoryBackendRedis:
	case HistoryBackendPostgres:
		if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
				c.Database.MaxIdleConns, c.Database.MaxOpenConns)
		}
	case HistoryBackendS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when history.backend is s3")
		}
	default:
		return fmt.Errorf("history.backend must be one of memory, sqlite, postgres, redis, s3; got %q", c.History.Backend)
	}

	if c.Messaging.Enabled && c.Messaging.URL == "" {
		return fmt.Errorf("messaging.url is required when messaging is enabled")
	}

	if c.App.Env == "production" {
		if c.History.Backend == HistoryBackendPostgres && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
