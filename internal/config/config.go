// Package config loads server configuration from layered sources.
//
// Precedence, lowest first: built-in defaults, an optional YAML file
// (CONFIG_PATH, else ./config.yaml or ./config.yml), environment variables.
//
// Environment variables:
//
//	PORT              server.port (default 8080)
//	CORS_ORIGIN       server.cors_origin (default *)
//	SHUTDOWN_TIMEOUT  server.shutdown_timeout (default 10s)
//	DB_PATH           database.path (default ./data/toast.db)
//	LOG_LEVEL         logging.level: debug, info, warn, error (default info)
//	CACHE_ENABLED     cache.enabled (default true)
//	CACHE_SIZE        cache.size, max entries (default 256)
//	CACHE_TTL         cache.ttl (default 10m)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/mmynk/toastmixer/internal/validation"
)

// ConfigPathEnvVar names the variable pointing at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Cache    CacheConfig    `koanf:"cache"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	CORSOrigin      string        `koanf:"cors_origin" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// CacheConfig sizes the matching result cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Size    int           `koanf:"size" validate:"min=1"`
	TTL     time.Duration `koanf:"ttl" validate:"gte=0"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			CORSOrigin:      "*",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/toast.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    256,
			TTL:     10 * time.Minute,
		},
	}
}

// envMappings maps lower-cased environment variable names to config paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"port":             "server.port",
	"cors_origin":      "server.cors_origin",
	"shutdown_timeout": "server.shutdown_timeout",
	"db_path":          "database.path",
	"log_level":        "logging.level",
	"cache_enabled":    "cache.enabled",
	"cache_size":       "cache.size",
	"cache_ttl":        "cache.ttl",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load builds the configuration from defaults, the config file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	return nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		slog.Warn("config file not found", "path", path)
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadDotEnv loads variables from .env files (./.env by default) without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}
