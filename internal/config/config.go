// Package config reads runtime settings from the environment.
//
// An optional .env file is loaded first (github.com/joho/godotenv). Variables
// already set in the real environment win over the file, so a deployment can
// override any line without editing it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sakif/codevault/internal/storage/redisstore"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	App     AppConfig
}

type ServerConfig struct {
	Port         int
	ShareBaseURL string // prefix of share links, e.g. "https://vault.example.com"
}

type StorageConfig struct {
	Backend string // BackendSQLite or BackendRedis
	DBPath  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type AppConfig struct {
	LogLevel string
}

// Load reads the configuration. files name .env files to load; with none,
// ./.env is tried. A missing file is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading env file: %w", err)
	}

	port := getEnvAsInt("PORT", 8080)

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			ShareBaseURL: getEnv("SHARE_BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
			DBPath:  getEnv("DB_PATH", "data/codevault.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", redisstore.DefaultPrefix),
		},
		App: AppConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the %s backend", BackendSQLite)
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the %s backend", BackendRedis)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("REDIS_DB must not be negative, got %d", c.Redis.DB)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendRedis, c.Storage.Backend)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	return nil
}

// LogLevel parses App.LogLevel ("debug", "info", "warn", "error").
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q is not a valid level", c.App.LogLevel)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer in environment, using default",
			slog.String("key", key),
			slog.String("value", valueStr),
			slog.Int("default", defaultValue),
		)
		return defaultValue
	}

	return value
}
