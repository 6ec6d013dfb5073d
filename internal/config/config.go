// Package config loads process configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the majbot hosts.
type Config struct {
	Definition string
	LogLevel   slog.Level

	// HTTP host
	HTTPAddr string

	// Session storage. Redis wins when an address is set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	BoltPath      string

	// Hex encoded AES-256 keys. When SessionKey is set, stored dictionaries are encrypted.
	SessionKey          string
	SessionFallbackKeys []string

	// Weather handler
	WeatherURL     string
	WeatherTimeout time.Duration
	WeatherRetries int
}

// Load reads an optional .env file from the working directory, then the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit .env path. A missing file is not an error.
func LoadFile(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
	}

	level, err := logging.ParseLevel(getEnv("MAJBOT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Definition:     getEnv("MAJBOT_DEFINITION", "examples/bots/majbot.yaml"),
		LogLevel:       level,
		HTTPAddr:       getEnv("MAJBOT_HTTP_ADDR", ":8080"),
		RedisAddr:      os.Getenv("MAJBOT_REDIS_ADDR"),
		RedisPassword:  os.Getenv("MAJBOT_REDIS_PASSWORD"),
		RedisDB:        getEnvInt("MAJBOT_REDIS_DB", 0),
		SessionTTL:     getEnvDuration("MAJBOT_SESSION_TTL", 24*time.Hour),
		BoltPath:       getEnv("MAJBOT_BOLT_PATH", "majbot.db"),
		SessionKey:     os.Getenv("MAJBOT_SESSION_KEY"),
		WeatherURL:     getEnv("MAJBOT_WEATHER_URL", "https://wttr.in"),
		WeatherTimeout: getEnvDuration("MAJBOT_WEATHER_TIMEOUT", 10*time.Second),
		WeatherRetries: getEnvInt("MAJBOT_WEATHER_RETRIES", 2),
	}
	cfg.SessionFallbackKeys = getEnvList("MAJBOT_SESSION_FALLBACK_KEYS")

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Definition) == "" {
		return errors.New("MAJBOT_DEFINITION must not be empty")
	}
	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("MAJBOT_REDIS_DB must be 0-15, got %d", c.RedisDB)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("MAJBOT_SESSION_TTL must not be negative, got %v", c.SessionTTL)
	}
	if c.WeatherTimeout <= 0 {
		return fmt.Errorf("MAJBOT_WEATHER_TIMEOUT must be positive, got %v", c.WeatherTimeout)
	}
	if len(c.SessionFallbackKeys) > 0 && c.SessionKey == "" {
		return errors.New("MAJBOT_SESSION_FALLBACK_KEYS requires MAJBOT_SESSION_KEY")
	}
	if c.WeatherRetries < 0 || c.WeatherRetries > 10 {
		return fmt.Errorf("MAJBOT_WEATHER_RETRIES must be 0-10, got %d", c.WeatherRetries)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
