// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	minScore := cfg.Matching.MinScore
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Matching      MatchingConfig      `yaml:"matching"`
	Clock         ClockConfig         `yaml:"clock"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MatchingConfig holds suggestion ranking settings
type MatchingConfig struct {
	MinScore int           `yaml:"min_score"`
	Limit    int           `yaml:"limit"`
	Weights  WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds the transaction to projected income weights.
// Zero values fall back to the built-in defaults.
type WeightsConfig struct {
	Currency int `yaml:"currency"`
	Client   int `yaml:"client"`
	Amount   int `yaml:"amount"`
	Date     int `yaml:"date"`
}

// IsSet reports whether any weight was configured.
func (w WeightsConfig) IsSet() bool {
	return w.Currency != 0 || w.Client != 0 || w.Amount != 0 || w.Date != 0
}

// ClockConfig controls the time source.
type ClockConfig struct {
	// FrozenAt pins "today" to a YYYY-MM-DD date for demos. Empty uses the system clock.
	FrozenAt string `yaml:"frozen_at"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultDatabasePath = "freelance_ledger.db"
	defaultPort         = 8085
	defaultMinScore     = 40
	defaultLimit        = 5
)

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LEDGER_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			DatabasePath: getEnv("LEDGER_DB_PATH", defaultDatabasePath),
		},
		Server: ServerConfig{
			Port:           getEnvInt("LEDGER_PORT", defaultPort),
			AllowedOrigins: getEnvList("LEDGER_ALLOWED_ORIGINS"),
		},
		Matching: MatchingConfig{
			MinScore: getEnvInt("LEDGER_MIN_SCORE", defaultMinScore),
			Limit:    getEnvInt("LEDGER_SUGGESTION_LIMIT", defaultLimit),
		},
		Clock: ClockConfig{
			FrozenAt: os.Getenv("LEDGER_FROZEN_AT"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills settings a partial YAML file left empty.
// Use a negative limit to disable truncation.
func (c *Config) applyDefaults() {
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = defaultDatabasePath
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Matching.MinScore == 0 {
		c.Matching.MinScore = defaultMinScore
	}
	if c.Matching.Limit == 0 {
		c.Matching.Limit = defaultLimit
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvList splits a comma-separated environment variable
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
