package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Clustering ClusteringConfig
	Sync       SyncConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`

	// TableSuffix is the naming convention used to discover per-market
	// product tables (e.g. "a101_products" for suffix "_products").
	TableSuffix string `mapstructure:"table_suffix"`
}

// ClusteringConfig holds parameters for the density clustering run.
// Both values are corpus-size-dependent and deliberately tunable.
type ClusteringConfig struct {
	Eps                float64 `mapstructure:"eps"`
	MinSamples         int     `mapstructure:"min_samples"`
	EnableDebugLogging bool    `mapstructure:"debug"`
}

// SyncConfig holds settings for writing canonical names back to market tables
type SyncConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// CacheConfig holds cache settings for query-time match results
type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration for the read API
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
	Burst int `mapstructure:"burst"`
}

// MetricsConfig holds the Prometheus exposition settings for the batch job
type MetricsConfig struct {
	Port string `mapstructure:"port"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/priceless/")

	// Environment variable settings
	v.SetEnvPrefix("PRICELESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.table_suffix", "_products")

	// Clustering defaults, chosen empirically for short Turkish grocery names
	v.SetDefault("clustering.eps", 0.6)
	v.SetDefault("clustering.min_samples", 4)

	// Sync defaults
	v.SetDefault("sync.batch_size", 1000)
	v.SetDefault("sync.max_retries", 2)
	v.SetDefault("sync.retry_backoff", "500ms")

	// Cache defaults
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.ttl", "15m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 30)
	v.SetDefault("ratelimit.burst", 10)

	// Metrics defaults
	v.SetDefault("metrics.port", "9090")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Name == "" {
		return fmt.Errorf("database name is required (set PRICELESS_DATABASE_NAME)")
	}

	if config.Database.User == "" {
		return fmt.Errorf("database user is required (set PRICELESS_DATABASE_USER)")
	}

	if config.Database.TableSuffix == "" {
		return fmt.Errorf("market table suffix cannot be empty")
	}

	if config.Clustering.Eps <= 0 || config.Clustering.Eps > 1 {
		return fmt.Errorf("clustering eps must be in (0, 1], got: %v", config.Clustering.Eps)
	}

	if config.Clustering.MinSamples < 1 {
		return fmt.Errorf("clustering min_samples must be at least 1, got: %d", config.Clustering.MinSamples)
	}

	if config.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync batch size must be positive, got: %d", config.Sync.BatchSize)
	}

	if config.Sync.MaxRetries < 0 {
		return fmt.Errorf("sync max retries cannot be negative, got: %d", config.Sync.MaxRetries)
	}

	return nil
}

// DSN builds the PostgreSQL connection string for lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}
