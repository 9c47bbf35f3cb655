package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	ListBackend ListBackendConfig
	Pricer      PricerConfig
	Breaker     BreakerConfig
	Enrich      EnrichConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ListBackendConfig locates the shopping list backend.
type ListBackendConfig struct {
	URL     string        `envconfig:"SHOPPING_BACKEND_URL" default:"http://shopping-backend:8080"`
	Timeout time.Duration `envconfig:"SHOPPING_BACKEND_TIMEOUT" default:"5s"`
}

// PricerConfig locates the pricer service.
type PricerConfig struct {
	Service   string `envconfig:"PRICER_SERVICE" default:"pricer-service"`
	URL       string `envconfig:"PRICER_URL"`
	Discovery string `envconfig:"PRICER_DISCOVERY" default:"env"`
}

// BreakerConfig holds the circuit breaker thresholds for the pricer dependency.
type BreakerConfig struct {
	MaxFailures   uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"3"`
	ResetTimeout  time.Duration `envconfig:"BREAKER_RESET_TIMEOUT" default:"5s"`
	CallTimeout   time.Duration `envconfig:"BREAKER_CALL_TIMEOUT" default:"1s"`
	FailureWindow time.Duration `envconfig:"BREAKER_FAILURE_WINDOW" default:"10s"`
}

// EnrichConfig sizes the price lookup worker pool.
type EnrichConfig struct {
	Workers int `envconfig:"ENRICH_WORKERS" default:"32"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables, then applies the
// file named by CONFIG_FILE when set. File values win over the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := ApplyFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		ListBackend: ListBackendConfig{
			URL:     "http://shopping-backend:8080",
			Timeout: 5 * time.Second,
		},
		Pricer: PricerConfig{
			Service:   "pricer-service",
			Discovery: "env",
		},
		Breaker: BreakerConfig{
			MaxFailures:   3,
			ResetTimeout:  5 * time.Second,
			CallTimeout:   time.Second,
			FailureWindow: 10 * time.Second,
		},
		Enrich: EnrichConfig{
			Workers: 32,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects settings the gateway cannot run with.
func (c *Config) Validate() error {
	if c.ListBackend.URL == "" {
		return fmt.Errorf("invalid config: shopping backend URL is required")
	}
	if c.Breaker.MaxFailures == 0 {
		return fmt.Errorf("invalid config: breaker max failures must be at least 1")
	}
	if c.Breaker.CallTimeout <= 0 || c.Breaker.ResetTimeout <= 0 {
		return fmt.Errorf("invalid config: breaker timeouts must be positive")
	}
	switch c.Pricer.Discovery {
	case "env", "static":
	default:
		return fmt.Errorf("invalid config: unknown pricer discovery %q", c.Pricer.Discovery)
	}
	if c.Pricer.Discovery == "static" && c.Pricer.URL == "" {
		return fmt.Errorf("invalid config: static pricer discovery requires PRICER_URL")
	}
	return nil
}
