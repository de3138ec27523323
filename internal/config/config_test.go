package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "resty", cfg.HTTPBackend)
	assert.True(t, cfg.HTTPValidateStatus, "status validation defaults to on")
	assert.Equal(t, 300*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "none", cfg.StorageType)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_BACKEND", "nethttp")
	t.Setenv("REFRESH_INTERVAL", "30")
	t.Setenv("HTTP_VALIDATE_STATUS", "false")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "nethttp", cfg.HTTPBackend)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.False(t, cfg.HTTPValidateStatus)
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "0")

	_, err := load(viper.New())
	assert.Error(t, err)
}
