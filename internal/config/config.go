// Package config provides unified configuration loading for textgrab.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for textgrab.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	OCR           OCRConfig           `yaml:"ocr"`
	Render        RenderConfig        `yaml:"render"`
	Limits        LimitsConfig        `yaml:"limits"`
	Cache         CacheConfig         `yaml:"cache"`
	History       HistoryConfig       `yaml:"history"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// OCRConfig holds recognition engine settings.
type OCRConfig struct {
	Language       string        `yaml:"language"`
	TessdataPrefix string        `yaml:"tessdata_prefix"`
	PageSegMode    int           `yaml:"page_seg_mode"`
	Timeout        time.Duration `yaml:"timeout"` // zero means no timeout
}

// RenderConfig holds document rasterization settings.
type RenderConfig struct {
	Scale           float64 `yaml:"scale"`
	PreviewMaxWidth int     `yaml:"preview_max_width"` // zero keeps full size
}

// LimitsConfig holds input size limits.
type LimitsConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`    // zero means entries never expire
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// HistoryConfig holds session history store settings.
type HistoryConfig struct {
	Driver string `yaml:"driver"` // none, sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.History.Driver == "sqlite" && cfg.History.DSN != "" && !strings.HasPrefix(cfg.History.DSN, "file:") {
			cfg.History.DSN = ResolveRelativePath(path, cfg.History.DSN)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     0, // event streams stay open
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			AllowedOrigins:   []string{"*"},
		},
		OCR: OCRConfig{
			Language:    "eng",
			PageSegMode: 3,
		},
		Render: RenderConfig{
			Scale: 1.5,
		},
		Limits: LimitsConfig{
			MaxUploadBytes: 50 << 20,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        30 * time.Minute,
			MaxEntries: 256,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
				Prefix:   "textgrab:",
			},
		},
		History: HistoryConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(os.TempDir(), "textgrab-history.db"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "console",
			ServiceName: "textgrab",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if strings.TrimSpace(c.OCR.Language) == "" {
		return fmt.Errorf("ocr language is required")
	}

	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("invalid page segmentation mode: %d", c.OCR.PageSegMode)
	}

	if c.Render.Scale <= 0 || c.Render.Scale > 8 {
		return fmt.Errorf("render scale must be in (0, 8], got %v", c.Render.Scale)
	}

	if c.Limits.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	switch c.Cache.Driver {
	case "none":
	case "memory", "redis":
		if c.Cache.TTL < 0 {
			return fmt.Errorf("cache ttl must not be negative, got %v (0 disables expiry)", c.Cache.TTL)
		}
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	switch c.History.Driver {
	case "none":
	case "sqlite", "postgres":
		if c.History.DSN == "" {
			return fmt.Errorf("history dsn is required for driver %s", c.History.Driver)
		}
	default:
		return fmt.Errorf("invalid history driver: %s", c.History.Driver)
	}

	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("OCR_LANGUAGE"); v != "" {
		cfg.OCR.Language = v
	}

	if v := os.Getenv("TESSDATA_PREFIX"); v != "" {
		cfg.OCR.TessdataPrefix = v
	}

	if v := os.Getenv("OCR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OCR.Timeout = d
		}
	}

	if v := os.Getenv("RENDER_SCALE"); v != "" {
		if scale, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Render.Scale = scale
		}
	}

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Limits.MaxUploadBytes = n
		}
	}

	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		// Parse redis://host:port format
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.History.Driver = "sqlite"
			cfg.History.DSN = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.History.Driver = "postgres"
			cfg.History.DSN = v
		}
	}

	if v := os.Getenv("HISTORY_DRIVER"); v != "" {
		cfg.History.Driver = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
