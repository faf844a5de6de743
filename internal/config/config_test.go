package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_NAME", "APP_VERSION", "DEBUG", "HOST", "PORT",
	"GEMINI_API_KEY", "GEMINI_MODEL", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "IDENTIFY_FALLBACK", "SERPAPI_KEY", "SERPAPI_BASE_URL",
	"SERPAPI_RATE_PER_SECOND", "CORS_ORIGINS", "CACHE_DB_PATH", "CACHE_MAX_AGE", "BOT_TOKEN",
	"LOG_LEVEL", "LOG_FORMAT", "REQUEST_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "LootLook API", cfg.AppName)
	assert.Equal(t, "0.1.0", cfg.AppVersion)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.IdentifyFallback)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 2.0, cfg.SerpAPIRatePerSecond)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 720*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Empty(t, cfg.SerpAPIKey)
	assert.Empty(t, cfg.BotToken)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG", "true")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("SERPAPI_KEY", "s-key")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://lootlook.app")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
	assert.Equal(t, "s-key", cfg.SerpAPIKey)
	assert.Equal(t, "a-key", cfg.AnthropicAPIKey)
	assert.Equal(t, []string{"http://localhost:3000", "https://lootlook.app"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
}

func TestFromEnv_CORSOriginsJSONArray(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ORIGINS", `["http://a.test","http://b.test"]`)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "eighty"},
		{"PORT", "70000"},
		{"DEBUG", "maybe"},
		{"IDENTIFY_FALLBACK", "sometimes"},
		{"SERPAPI_RATE_PER_SECOND", "fast"},
		{"REQUEST_TIMEOUT", "30"},
		{"CORS_ORIGINS", "[not json"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
