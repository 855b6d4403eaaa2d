package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "notifications-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "https://chat.stream-io-api.com", cfg.GetStream.BaseURL)
	assert.Equal(t, "https://community.goil.app/api/v2/queue", cfg.Queue.URL)
	assert.Equal(t, "eu-west-3", cfg.Storage.Region)
	assert.Equal(t, 600, cfg.Storage.URLExpiresIn)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestJWTSecretFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_MOBILE_PLATFORM", "legacy-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-secret", cfg.JWT.Secret)
}

func TestEffectiveWorkers(t *testing.T) {
	app := AppConfig{Workers: 8}
	assert.Equal(t, 8, app.EffectiveWorkers())

	app.Workers = 0
	assert.Positive(t, app.EffectiveWorkers())
}

func TestPoolSizes(t *testing.T) {
	t.Run("derived from workers", func(t *testing.T) {
		cfg := &Config{App: AppConfig{Workers: 4}}
		maxPool, minPool := cfg.PoolSizes()
		assert.Equal(t, uint64(125), maxPool)
		assert.Equal(t, uint64(31), minPool)
	})

	t.Run("capped at 150", func(t *testing.T) {
		cfg := &Config{App: AppConfig{Workers: 1}}
		maxPool, minPool := cfg.PoolSizes()
		assert.Equal(t, uint64(150), maxPool)
		assert.Equal(t, uint64(37), minPool)
	})

	t.Run("never below one", func(t *testing.T) {
		cfg := &Config{App: AppConfig{Workers: 600}}
		maxPool, minPool := cfg.PoolSizes()
		assert.Equal(t, uint64(1), maxPool)
		assert.Equal(t, uint64(1), minPool)
	})

	t.Run("explicit overrides win", func(t *testing.T) {
		cfg := &Config{
			App:   AppConfig{Workers: 4},
			Mongo: MongoConfig{MaxPoolSize: 40, MinPoolSize: 5},
		}
		maxPool, minPool := cfg.PoolSizes()
		assert.Equal(t, uint64(40), maxPool)
		assert.Equal(t, uint64(5), minPool)
	})
}
