package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ruptura")
	t.Setenv("AUTH0_DOMAIN", "ruptura.eu.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.ruptura.app")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, PresetStorageMemory, cfg.PresetStorage)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Sync.MaxBackoff)
	assert.Equal(t, 10*time.Second, cfg.Sync.MutationTimeout)
	assert.Equal(t, 64, cfg.Sync.MutationQueueSize)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 10, cfg.DatabaseMaxConns)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("LOCALE", "pt-BR")
	t.Setenv("PRESET_STORAGE", "S3")
	t.Setenv("SYNC_INITIAL_BACKOFF", "1s")
	t.Setenv("SYNC_MAX_BACKOFF", "1m")
	t.Setenv("MUTATION_QUEUE_SIZE", "8")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "pt-BR", cfg.Locale)
	assert.Equal(t, PresetStorageS3, cfg.PresetStorage)
	assert.Equal(t, time.Second, cfg.Sync.InitialBackoff)
	assert.Equal(t, time.Minute, cfg.Sync.MaxBackoff)
	assert.Equal(t, 8, cfg.Sync.MutationQueueSize)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 4, cfg.DatabaseMaxConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH0_DOMAIN", "x")
	t.Setenv("AUTH0_AUDIENCE", "y")

	_, err := Load()

	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad duration", "MUTATION_TIMEOUT", "soon", "MUTATION_TIMEOUT"},
		{"negative duration", "SESSION_IDLE_TTL", "-1m", "SESSION_IDLE_TTL"},
		{"bad int", "RATE_LIMIT_BURST", "many", "RATE_LIMIT_BURST"},
		{"unknown storage", "PRESET_STORAGE", "redis", "PRESET_STORAGE"},
		{"inverted backoff", "SYNC_MAX_BACKOFF", "100ms", "SYNC_MAX_BACKOFF"},
		{"pool too small", "DB_MAX_CONNS", "1", "DB_MAX_CONNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
