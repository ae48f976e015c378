// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "descry", cfg.Logger.ServiceName)
	assert.Equal(t, "cdp", cfg.Browser.Backend)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	assert.Equal(t, 30*time.Second, cfg.Resolver.DefaultTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Resolver.PollInterval)
	assert.Equal(t, 3, cfg.Resolver.StablePolls)
	assert.Equal(t, 1.0, cfg.Resolver.StabilityEpsilonPx)
	assert.Equal(t, "load", cfg.Resolver.LoadState)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("valid defaults pass", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid backend", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Browser.Backend = "webdriver"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.backend")
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Resolver.DefaultTimeout = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolver.default_timeout")
	})

	t.Run("non-positive stable polls", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Resolver.StablePolls = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolver.stable_polls")
	})

	t.Run("invalid load state", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Resolver.LoadState = "idle-ish"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolver.load_state")
	})
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("yaml overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yaml := []byte(`
browser:
  backend: playwright
  headless: false
resolver:
  default_timeout: 10s
  stable_polls: 5
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "playwright", cfg.Browser.Backend)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 10*time.Second, cfg.Resolver.DefaultTimeout)
		assert.Equal(t, 5, cfg.Resolver.StablePolls)
		// Untouched keys keep their defaults.
		assert.Equal(t, 100*time.Millisecond, cfg.Resolver.PollInterval)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("browser.backend", "selenium")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
