package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FAILURE_INSIGHTS_"

// Config captures the settings required to boot the bug details service.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Backend      BackendConfig      `yaml:"backend"`
	Logging      LoggingConfig      `yaml:"logging"`
	Analysis     AnalysisConfig     `yaml:"analysis"`
	Presentation PresentationConfig `yaml:"presentation"`
	Cache        CacheConfig        `yaml:"cache"`
}

// ServerConfig controls gRPC listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// BackendConfig points at the failures API.
type BackendConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	FailuresPath string        `yaml:"failuresPath"`
	CountsPath   string        `yaml:"countsPath"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging. Format is one of text, json, console or auto;
// when empty, JSON selects between json and text.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Format string `yaml:"format"`
}

// AnalysisConfig tunes the graph computations.
type AnalysisConfig struct {
	Window         int     `yaml:"window"`
	SpikeThreshold float64 `yaml:"spikeThreshold"`
}

// PresentationConfig controls row styling.
type PresentationConfig struct {
	RulesPath string `yaml:"rulesPath"`
}

// CacheConfig controls the redis-backed view and response cache.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	KeyPrefix    string        `yaml:"keyPrefix"`
	ViewTTL      time.Duration `yaml:"viewTTL"`
	BackendTTL   time.Duration `yaml:"backendTTL"`
}

// Load initialises Config from defaults, an optional YAML file and environment overrides.
// An empty path falls back to FAILURE_INSIGHTS_CONFIG.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			FailuresPath: "/api/failuresbybug/",
			CountsPath:   "/api/failurecount/",
			Timeout:      10 * time.Second,
		},
		Logging:      LoggingConfig{Level: "info"},
		Analysis:     AnalysisConfig{Window: 7, SpikeThreshold: 3},
		Presentation: PresentationConfig{RulesPath: "configs/rules/default.yaml"},
		Cache: CacheConfig{
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			KeyPrefix:    "failure-insights:",
			ViewTTL:      30 * time.Minute,
			BackendTTL:   5 * time.Minute,
		},
	}
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.Analysis.Window < 1 {
		return fmt.Errorf("analysis.window must be at least 1, got %d", c.Analysis.Window)
	}
	if c.Analysis.SpikeThreshold <= 0 {
		return fmt.Errorf("analysis.spikeThreshold must be positive")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when the cache is enabled")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("SERVER_ADDRESS", &cfg.Server.Address)
	envString("METRICS_ADDRESS", &cfg.Server.MetricsAddress)
	envDuration("GRACEFUL_TIMEOUT", &cfg.Server.GracefulTimeout)

	envString("BACKEND_BASE_URL", &cfg.Backend.BaseURL)
	envString("BACKEND_FAILURES_PATH", &cfg.Backend.FailuresPath)
	envString("BACKEND_COUNTS_PATH", &cfg.Backend.CountsPath)
	envDuration("BACKEND_TIMEOUT", &cfg.Backend.Timeout)

	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)
	if strings.EqualFold(cfg.Logging.Format, "json") {
		cfg.Logging.JSON = true
	}

	envInt("ANALYSIS_WINDOW", &cfg.Analysis.Window)
	if v := os.Getenv(EnvPrefix + "SPIKE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.SpikeThreshold = f
		}
	}
	envString("RULES_PATH", &cfg.Presentation.RulesPath)

	envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	envString("CACHE_ADDR", &cfg.Cache.Addr)
	envString("CACHE_USERNAME", &cfg.Cache.Username)
	envString("CACHE_PASSWORD", &cfg.Cache.Password)
	envInt("CACHE_DB", &cfg.Cache.DB)
	envBool("CACHE_TLS", &cfg.Cache.TLS)
	envDuration("CACHE_DIAL_TIMEOUT", &cfg.Cache.DialTimeout)
	envDuration("CACHE_READ_TIMEOUT", &cfg.Cache.ReadTimeout)
	envDuration("CACHE_WRITE_TIMEOUT", &cfg.Cache.WriteTimeout)
	envInt("CACHE_MAX_RETRIES", &cfg.Cache.MaxRetries)
	envString("CACHE_KEY_PREFIX", &cfg.Cache.KeyPrefix)
	envDuration("CACHE_VIEW_TTL", &cfg.Cache.ViewTTL)
	envDuration("CACHE_BACKEND_TTL", &cfg.Cache.BackendTTL)
}

func envString(key string, dst *string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
