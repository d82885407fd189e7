package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 0, cfg.API.MaxRetries, "retries are opt-in")
	assert.Equal(t, "file", cfg.Storage.Provider)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestNewConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "https://api.example.com")
	t.Setenv("STOREFRONT_API_TIMEOUT", "30s")
	t.Setenv("STOREFRONT_API_MAX_RETRIES", "2")
	t.Setenv("STOREFRONT_LOG_LEVEL", "debug")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.API.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestNewConfigOptionsBeatEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "https://env.example.com")

	cfg, err := NewConfig(WithBaseURL("https://option.example.com"))
	require.NoError(t, err)

	assert.Equal(t, "https://option.example.com", cfg.API.BaseURL)
}

func TestNewConfigRedisURLFallback(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379", cfg.Storage.RedisURL)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{
			name: "non-positive timeout",
			opts: []Option{WithTimeout(0)},
		},
		{
			name: "negative retries",
			opts: []Option{WithRetries(-1, time.Millisecond)},
		},
		{
			name: "redis provider without URL",
			opts: []Option{WithRedisStorage("")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opts...)
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err), "expected configuration error, got %v", err)
		})
	}
}

func TestConfigUnknownStorageProvider(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_PROVIDER", "carrier-pigeon")

	_, err := NewConfig()
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestWithTelemetry(t *testing.T) {
	cfg, err := NewConfig(WithTelemetry("flower-shop", "collector:4317"))
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "flower-shop", cfg.Telemetry.ServiceName)
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
}

func TestWithTelemetryKeepsDefaultServiceName(t *testing.T) {
	cfg, err := NewConfig(WithTelemetry("", ""))
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "storefront-client", cfg.Telemetry.ServiceName)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  base_url: https://file.example.com
  timeout: 10s
storage:
  provider: memory
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Storage.Provider)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfigFileOptionsWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example.com\n"), 0o600))

	cfg, err := LoadConfigFile(path, WithBaseURL("https://option.example.com"))
	require.NoError(t, err)
	assert.Equal(t, "https://option.example.com", cfg.API.BaseURL)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
