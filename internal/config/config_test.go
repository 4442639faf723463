package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8214", cfg.ListenAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RIPOSTE_LISTEN_ADDR", ":9000")
	t.Setenv("RIPOSTE_POLL_INTERVAL", "1s")
	t.Setenv("RIPOSTE_STORE", "redis")
	t.Setenv("RIPOSTE_REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, "redis", cfg.Store)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("RIPOSTE_POLL_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)
}
