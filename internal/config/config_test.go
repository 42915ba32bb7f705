package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/postpulse")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
	t.Setenv("UPSTREAM_BEARER_TOKEN", "token")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 10*time.Hour, cfg.CacheWindow)
	assert.Equal(t, 50, cfg.EnrichBatchSize)
	assert.Equal(t, 15, cfg.FetchMaxPosts)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CACHE_WINDOW_HOURS", "24")
	t.Setenv("ENRICH_BATCH_SIZE", "100")
	t.Setenv("FETCH_MAX_POSTS", "50")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "5")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.CacheWindow)
	assert.Equal(t, 100, cfg.EnrichBatchSize)
	assert.Equal(t, 50, cfg.FetchMaxPosts)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
}

func TestLoad_RequiredFields(t *testing.T) {
	required := []string{
		"DATABASE_URL",
		"REDIS_URL",
		"UPSTREAM_BASE_URL",
		"UPSTREAM_BEARER_TOKEN",
		"OPENAI_API_KEY",
	}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoad_RejectsNonIntegerValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_WINDOW_HOURS", "ten")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_WINDOW_HOURS")
}

func TestLoad_RejectsNonPositiveWindows(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_WINDOW_HOURS", "0")

	_, err := Load()
	require.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("CACHE_WINDOW_HOURS", "10")
	t.Setenv("ENRICH_BATCH_SIZE", "-1")

	_, err = Load()
	require.Error(t, err)
}

func TestLoad_FetchMaxPostsBounds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FETCH_MAX_POSTS", "101")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_MAX_POSTS")

	t.Setenv("FETCH_MAX_POSTS", "0")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("FETCH_MAX_POSTS", "100")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.FetchMaxPosts)
}
