package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "app.log", cfg.LogPath)
	assert.Equal(t, 9001, cfg.ListenPort)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 1000, cfg.QueueSize)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.UseLocalModel)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialBackoff)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LOG_PATH", "/var/log/fw.log")
	t.Setenv("WEBSOCKET_PORT", "9100")
	t.Setenv("CONCURRENCY", "8")
	t.Setenv("USE_LOCAL_MODEL", "false")
	t.Setenv("MODEL_API_URL", "http://model:8000")
	t.Setenv("MAX_RETRIES", "2")
	t.Setenv("INITIAL_BACKOFF", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/log/fw.log", cfg.LogPath)
	assert.Equal(t, 9100, cfg.ListenPort)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.False(t, cfg.UseLocalModel)
	assert.Equal(t, "http://model:8000", cfg.ModelAPIURL)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialBackoff)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firewatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_path: /tmp/other.log\nconcurrency: 2\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.log", cfg.LogPath)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firewatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_path: /tmp/from-file.log\n"), 0644))
	t.Setenv("LOG_PATH", "/tmp/from-env.log")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.log", cfg.LogPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty log path", func(c *Config) { c.LogPath = "" }},
		{"bad port", func(c *Config) { c.ListenPort = 0 }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"remote model without url", func(c *Config) { c.UseLocalModel = false; c.ModelAPIURL = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	cfg.ListenHost = "127.0.0.1"
	cfg.ListenPort = 9001

	assert.Equal(t, "127.0.0.1:9001", cfg.ListenAddr())
}
