package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Configuration
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, 5, cfg.Postgres.MaxIdleConns)
	assert.Equal(t, "x-api-key", cfg.Auth.APIKey.Header)
	assert.Equal(t, 5*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "typst", cfg.PDF.TypstBinary)
}

func TestSetDefaultsYieldToConfiguredValues(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("sync.max_attempts", 2)
	v.Set("cache.enabled", false)

	var cfg Configuration
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 2, cfg.Sync.MaxAttempts)
	assert.False(t, cfg.Cache.Enabled)
}
