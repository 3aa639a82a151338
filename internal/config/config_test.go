package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 1.5, cfg.Render.Scale)
	assert.Equal(t, "0.0.0.0:8090", cfg.Addr())
}

func TestLoad_YAMLAndRelativeHistoryPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "textgrab.yaml")
	yaml := `
server:
  port: 9100
ocr:
  language: deu
  timeout: 45s
render:
  scale: 2
history:
  driver: sqlite
  dsn: data/history.db
cache:
  driver: none
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "deu", cfg.OCR.Language)
	assert.Equal(t, 45*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 2.0, cfg.Render.Scale)
	assert.Equal(t, filepath.Join(dir, "data/history.db"), cfg.History.DSN)
	assert.Equal(t, "none", cfg.Cache.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("OCR_LANGUAGE", "fra")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/textgrab?sslmode=disable")
	t.Setenv("RENDER_SCALE", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "fra", cfg.OCR.Language)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "postgres", cfg.History.Driver)
	assert.Equal(t, 3.0, cfg.Render.Scale)
}

func TestValidate_ZeroCacheTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.TTL = 0
	assert.NoError(t, cfg.Validate())

	cfg.Cache.Driver = "none"
	cfg.Cache.TTL = -time.Second
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty language", func(c *Config) { c.OCR.Language = " " }},
		{"bad psm", func(c *Config) { c.OCR.PageSegMode = 14 }},
		{"zero scale", func(c *Config) { c.Render.Scale = 0 }},
		{"zero upload limit", func(c *Config) { c.Limits.MaxUploadBytes = 0 }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"negative cache ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
		{"bad history driver", func(c *Config) { c.History.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.History.Driver = "postgres"; c.History.DSN = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
