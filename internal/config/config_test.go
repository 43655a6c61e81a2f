package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, SessionModeCookie, cfg.SessionMode)
	assert.Equal(t, 1, cfg.DimensionWorkers)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.True(t, cfg.WriteFiles)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeoutDuration())
	assert.Equal(t, 24*time.Hour, cfg.OrgCacheTTL())
	assert.Empty(t, cfg.PostgresURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DIMENSION_WORKERS", "4")
	t.Setenv("PROXIES", "http://a:1, ,http://b:2")
	t.Setenv("REQUEST_MIN_INTERVAL_MS", "250")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 4, cfg.DimensionWorkers)
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, cfg.ProxyList())
	assert.Equal(t, 250*time.Millisecond, cfg.RequestMinIntervalDuration())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestValidate(t *testing.T) {
	cfg := &Config{SessionMode: SessionModePassword, DimensionWorkers: 1}
	assert.Error(t, cfg.Validate())

	cfg.LinkedInUsername, cfg.LinkedInPassword = "u", "p"
	assert.NoError(t, cfg.Validate())

	cfg.SessionMode = "magic"
	assert.Error(t, cfg.Validate())

	cfg = &Config{SessionMode: SessionModeBrowser, DimensionWorkers: 0}
	assert.Error(t, cfg.Validate())
}
