package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"MAJBOT_DEFINITION", "MAJBOT_LOG_LEVEL", "MAJBOT_HTTP_ADDR", "MAJBOT_REDIS_ADDR",
	"MAJBOT_REDIS_PASSWORD", "MAJBOT_REDIS_DB", "MAJBOT_SESSION_TTL", "MAJBOT_BOLT_PATH",
	"MAJBOT_WEATHER_URL", "MAJBOT_WEATHER_TIMEOUT", "MAJBOT_WEATHER_RETRIES",
	"MAJBOT_SESSION_KEY", "MAJBOT_SESSION_FALLBACK_KEYS",
}

// clearEnv unsets every MAJBOT_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "examples/bots/majbot.yaml", cfg.Definition)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "majbot.db", cfg.BoltPath)
	assert.Equal(t, "https://wttr.in", cfg.WeatherURL)
	assert.Equal(t, 10*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 2, cfg.WeatherRetries)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAJBOT_DEFINITION", "bot.xml")
	t.Setenv("MAJBOT_LOG_LEVEL", "debug")
	t.Setenv("MAJBOT_REDIS_ADDR", "localhost:6379")
	t.Setenv("MAJBOT_REDIS_DB", "3")
	t.Setenv("MAJBOT_SESSION_TTL", "30m")
	t.Setenv("MAJBOT_WEATHER_TIMEOUT", "2s")
	t.Setenv("MAJBOT_WEATHER_RETRIES", "not-a-number")
	t.Setenv("MAJBOT_SESSION_KEY", "k1")
	t.Setenv("MAJBOT_SESSION_FALLBACK_KEYS", "k2, ,k3")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "bot.xml", cfg.Definition)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 2*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 2, cfg.WeatherRetries, "unparsable values fall back to the default")
	assert.Equal(t, "k1", cfg.SessionKey)
	assert.Equal(t, []string{"k2", "k3"}, cfg.SessionFallbackKeys)
}

func TestLoadFile_DotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAJBOT_HTTP_ADDR=:9999\nMAJBOT_BOLT_PATH=/tmp/x.db\n"), 0o644))
	t.Setenv("MAJBOT_BOLT_PATH", "/from/env.db")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "/from/env.db", cfg.BoltPath, "the environment wins over .env")
}

func TestLoadFile_MissingDotEnv(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAJBOT_LOG_LEVEL", "loud")
	_, err := LoadFile("")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Definition: "bot.yaml", WeatherTimeout: time.Second, WeatherRetries: 1}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Valid", func(*Config) {}, ""},
		{"Empty Definition", func(c *Config) { c.Definition = " " }, "MAJBOT_DEFINITION"},
		{"Redis DB Range", func(c *Config) { c.RedisDB = 16 }, "MAJBOT_REDIS_DB"},
		{"Negative TTL", func(c *Config) { c.SessionTTL = -time.Second }, "MAJBOT_SESSION_TTL"},
		{"Zero Timeout", func(c *Config) { c.WeatherTimeout = 0 }, "MAJBOT_WEATHER_TIMEOUT"},
		{"Too Many Retries", func(c *Config) { c.WeatherRetries = 11 }, "MAJBOT_WEATHER_RETRIES"},
		{"Fallback Without Key", func(c *Config) { c.SessionFallbackKeys = []string{"aa"} }, "MAJBOT_SESSION_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
