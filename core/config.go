package core

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the storefront client.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := core.NewConfig(
//	    core.WithBaseURL("https://api.everbloom.shop"),
//	    core.WithTimeout(5*time.Second),
//	)
type Config struct {
	// API configuration
	API APIConfig `yaml:"api"`

	// Storage configuration for durable token/user state
	Storage StorageConfig `yaml:"storage"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig contains the REST backend endpoint and request behavior.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"STOREFRONT_API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"STOREFRONT_API_TIMEOUT" default:"5s"`

	// Retries are opt-in: the gateway performs no automatic retries
	// unless MaxRetries is raised above zero.
	MaxRetries int           `yaml:"max_retries" env:"STOREFRONT_API_MAX_RETRIES" default:"0"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"STOREFRONT_API_RETRY_DELAY" default:"100ms"`
}

// StorageConfig selects the durable storage backend.
// Provider "file" persists to a JSON file under Dir; provider "redis"
// uses RedisURL with key namespacing.
type StorageConfig struct {
	Provider string `yaml:"provider" env:"STOREFRONT_STORAGE_PROVIDER" default:"file"`
	Dir      string `yaml:"dir" env:"STOREFRONT_STORAGE_DIR"`
	RedisURL string `yaml:"redis_url" env:"STOREFRONT_REDIS_URL,REDIS_URL"`
}

// TelemetryConfig contains OpenTelemetry export settings.
// With an empty Endpoint the stdout trace exporter is used.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"STOREFRONT_TELEMETRY_ENABLED" default:"false"`
	ServiceName string `yaml:"service_name" env:"STOREFRONT_TELEMETRY_SERVICE" default:"storefront-client"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `yaml:"level" env:"STOREFRONT_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" env:"STOREFRONT_LOG_FORMAT" default:"text"`
}

// Option is a functional option for Config
type Option func(*Config)

// NewConfig creates a Config by applying defaults, environment variables
// and options in priority order, then validating the result.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := defaultConfig()
	cfg.applyEnvironment()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout:    5 * time.Second,
			MaxRetries: 0,
			RetryDelay: 100 * time.Millisecond,
		},
		Storage: StorageConfig{
			Provider: "file",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "storefront-client",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) applyEnvironment() {
	if v := os.Getenv("STOREFRONT_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("STOREFRONT_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}
	if v := os.Getenv("STOREFRONT_API_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.MaxRetries = n
		}
	}
	if v := os.Getenv("STOREFRONT_API_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.RetryDelay = d
		}
	}
	if v := os.Getenv("STOREFRONT_STORAGE_PROVIDER"); v != "" {
		c.Storage.Provider = v
	}
	if v := os.Getenv("STOREFRONT_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("STOREFRONT_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("STOREFRONT_TELEMETRY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = b
		}
	}
	if v := os.Getenv("STOREFRONT_TELEMETRY_SERVICE"); v != "" {
		c.Telemetry.ServiceName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STOREFRONT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api timeout must be positive", ErrInvalidConfiguration)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfiguration)
	}
	switch c.Storage.Provider {
	case "file", "memory":
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("%w: redis storage requires a redis URL", ErrMissingConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown storage provider %q", ErrInvalidConfiguration, c.Storage.Provider)
	}
	return nil
}

// LoadConfigFile reads a YAML configuration file and applies it on top of
// defaults and environment variables. Options still take precedence.
func LoadConfigFile(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	cfg.applyEnvironment()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithBaseURL sets the REST backend base URL
func WithBaseURL(url string) Option {
	return func(c *Config) { c.API.BaseURL = url }
}

// WithTimeout sets the fixed request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.API.Timeout = d }
}

// WithRetries enables automatic retries for transient failures
func WithRetries(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.API.MaxRetries = maxRetries
		c.API.RetryDelay = delay
	}
}

// WithStorageDir selects the file storage directory
func WithStorageDir(dir string) Option {
	return func(c *Config) {
		c.Storage.Provider = "file"
		c.Storage.Dir = dir
	}
}

// WithRedisStorage selects redis-backed durable storage
func WithRedisStorage(redisURL string) Option {
	return func(c *Config) {
		c.Storage.Provider = "redis"
		c.Storage.RedisURL = redisURL
	}
}

// WithTelemetry enables OpenTelemetry trace export
func WithTelemetry(serviceName, endpoint string) Option {
	return func(c *Config) {
		c.Telemetry.Enabled = true
		if serviceName != "" {
			c.Telemetry.ServiceName = serviceName
		}
		c.Telemetry.Endpoint = endpoint
	}
}

// WithLogLevel sets the logging level
func WithLogLevel(level string) Option {
	return func(c *Config) { c.Logging.Level = level }
}
