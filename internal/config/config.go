// Package config loads service configuration from an optional YAML file
// with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/navikit/navgraph/pkg/errs"
)

// Config holds all service configuration.
type Config struct {
	// Server
	ListenAddr  string `yaml:"listen_addr"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	// Embedding
	EmbedderEndpoint string `yaml:"embedder_endpoint"` // empty selects the mock embedder
	Dimension        int    `yaml:"dimension"`

	// Vector index
	VectorBackend string `yaml:"vector_backend"` // brute or hnsw

	// Persistence
	SnapshotPath string `yaml:"snapshot_path"` // empty disables persistence

	// Matching thresholds
	StructuralThreshold float64 `yaml:"structural_threshold"`
	VectorThreshold     float64 `yaml:"vector_threshold"`
	MultiStrategyBoost  float64 `yaml:"multi_strategy_boost"`
	AlternativeDiscount float64 `yaml:"alternative_discount"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		ListenAddr:    ":8080",
		Environment:   "development",
		LogLevel:      "info",
		Dimension:     384,
		VectorBackend: "brute",
	}
}

// Load reads path (when non-empty) over the defaults and applies
// environment overrides last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Configuration(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Configuration(err, "parse config file %s", path)
		}
	}

	cfg.ListenAddr = getEnv("NAVGRAPH_LISTEN_ADDR", cfg.ListenAddr)
	cfg.Environment = getEnv("NAVGRAPH_ENV", cfg.Environment)
	cfg.LogLevel = getEnv("NAVGRAPH_LOG_LEVEL", cfg.LogLevel)
	cfg.EmbedderEndpoint = getEnv("NAVGRAPH_EMBEDDER_ENDPOINT", cfg.EmbedderEndpoint)
	cfg.Dimension = getEnvInt("NAVGRAPH_DIMENSION", cfg.Dimension)
	cfg.VectorBackend = getEnv("NAVGRAPH_VECTOR_BACKEND", cfg.VectorBackend)
	cfg.SnapshotPath = getEnv("NAVGRAPH_SNAPSHOT_PATH", cfg.SnapshotPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Dimension <= 0 {
		return errs.Configuration(nil, "dimension must be positive, got %d", c.Dimension)
	}
	switch c.VectorBackend {
	case "brute", "hnsw":
	default:
		return errs.Configuration(nil, "unknown vector backend %q", c.VectorBackend)
	}
	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// String renders the effective configuration for startup logging, without
// sensitive fields.
func (c *Config) String() string {
	return fmt.Sprintf("addr=%s env=%s backend=%s dim=%d", c.ListenAddr, c.Environment, c.VectorBackend, c.Dimension)
}
