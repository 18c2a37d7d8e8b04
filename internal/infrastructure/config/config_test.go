package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  database_path: "ledger.db"
server:
  port: 9000
  allowed_origins:
    - "http://localhost:5173"
matching:
  min_score: 60
  limit: 3
  weights:
    currency: 10
    client: 30
    amount: 40
    date: 20
clock:
  frozen_at: "2025-06-15"
observability:
  logging:
    level: debug
    format: json
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "ledger.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60, cfg.Matching.MinScore)
	assert.Equal(t, 3, cfg.Matching.Limit)
	assert.True(t, cfg.Matching.Weights.IsSet())
	assert.Equal(t, 30, cfg.Matching.Weights.Client)
	assert.Equal(t, "2025-06-15", cfg.Clock.FrozenAt)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_PartialFileGetsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 7000\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "freelance_ledger.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 40, cfg.Matching.MinScore)
	assert.Equal(t, 5, cfg.Matching.Limit)
	assert.False(t, cfg.Matching.Weights.IsSet())
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEDGER_DB_PATH", "test.db")
	t.Setenv("LEDGER_PORT", "9100")
	t.Setenv("LEDGER_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LEDGER_MIN_SCORE", "55")
	t.Setenv("LEDGER_FROZEN_AT", "2025-01-31")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 55, cfg.Matching.MinScore)
	assert.Equal(t, "2025-01-31", cfg.Clock.FrozenAt)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("LEDGER_DB_PATH", "")
	t.Setenv("LEDGER_PORT", "not-a-number")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "freelance_ledger.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Matching.Limit)
	assert.Empty(t, cfg.Clock.FrozenAt)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	// Test fallback when config file doesn't exist
	t.Setenv("LEDGER_DB_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	// Create temp config file with env vars
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  database_path: "${TEST_DB_PATH}"
clock:
  frozen_at: "${TEST_FROZEN_AT}"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("TEST_DB_PATH", "expanded.db")
	t.Setenv("TEST_FROZEN_AT", "2025-02-28")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "2025-02-28", cfg.Clock.FrozenAt)
}
