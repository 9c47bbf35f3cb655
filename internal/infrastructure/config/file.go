package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for YAML/TOML files. Durations are strings
// ("5s", "250ms") and every field is optional.
type fileConfig struct {
	Server struct {
		Port            string `yaml:"port" toml:"port"`
		Host            string `yaml:"host" toml:"host"`
		ShutdownTimeout string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
	} `yaml:"server" toml:"server"`
	ListBackend struct {
		URL     string `yaml:"url" toml:"url"`
		Timeout string `yaml:"timeout" toml:"timeout"`
	} `yaml:"list_backend" toml:"list_backend"`
	Pricer struct {
		Service   string `yaml:"service" toml:"service"`
		URL       string `yaml:"url" toml:"url"`
		Discovery string `yaml:"discovery" toml:"discovery"`
	} `yaml:"pricer" toml:"pricer"`
	Breaker struct {
		MaxFailures   uint32 `yaml:"max_failures" toml:"max_failures"`
		ResetTimeout  string `yaml:"reset_timeout" toml:"reset_timeout"`
		CallTimeout   string `yaml:"call_timeout" toml:"call_timeout"`
		FailureWindow string `yaml:"failure_window" toml:"failure_window"`
	} `yaml:"breaker" toml:"breaker"`
	Enrich struct {
		Workers *int `yaml:"workers" toml:"workers"`
	} `yaml:"enrich" toml:"enrich"`
	Logging struct {
		Level       string `yaml:"level" toml:"level"`
		Development *bool  `yaml:"development" toml:"development"`
	} `yaml:"logging" toml:"logging"`
	RateLimit struct {
		RequestsPerSecond int   `yaml:"requests_per_second" toml:"requests_per_second"`
		Burst             int   `yaml:"burst" toml:"burst"`
		Enabled           *bool `yaml:"enabled" toml:"enabled"`
	} `yaml:"rate_limit" toml:"rate_limit"`
}

// ApplyFile overlays the values present in a YAML (.yaml, .yml) or TOML
// (.toml) file onto cfg.
func ApplyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Server.Port, fc.Server.Port)
	setString(&cfg.Server.Host, fc.Server.Host)
	setString(&cfg.ListBackend.URL, fc.ListBackend.URL)
	setString(&cfg.Pricer.Service, fc.Pricer.Service)
	setString(&cfg.Pricer.URL, fc.Pricer.URL)
	setString(&cfg.Pricer.Discovery, fc.Pricer.Discovery)
	setString(&cfg.Logging.Level, fc.Logging.Level)

	if fc.Breaker.MaxFailures > 0 {
		cfg.Breaker.MaxFailures = fc.Breaker.MaxFailures
	}
	if fc.Enrich.Workers != nil {
		cfg.Enrich.Workers = *fc.Enrich.Workers
	}
	if fc.Logging.Development != nil {
		cfg.Logging.Development = *fc.Logging.Development
	}
	if fc.RateLimit.RequestsPerSecond > 0 {
		cfg.RateLimit.RequestsPerSecond = fc.RateLimit.RequestsPerSecond
	}
	if fc.RateLimit.Burst > 0 {
		cfg.RateLimit.Burst = fc.RateLimit.Burst
	}
	if fc.RateLimit.Enabled != nil {
		cfg.RateLimit.Enabled = *fc.RateLimit.Enabled
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"server.shutdown_timeout", fc.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"list_backend.timeout", fc.ListBackend.Timeout, &cfg.ListBackend.Timeout},
		{"breaker.reset_timeout", fc.Breaker.ResetTimeout, &cfg.Breaker.ResetTimeout},
		{"breaker.call_timeout", fc.Breaker.CallTimeout, &cfg.Breaker.CallTimeout},
		{"breaker.failure_window", fc.Breaker.FailureWindow, &cfg.Breaker.FailureWindow},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
