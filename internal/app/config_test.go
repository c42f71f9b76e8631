package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func missingFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "none.yaml")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func validConfig() *Config {
	return &Config{
		APIBaseURL: "http://localhost:8000",
		Session:    SessionConfig{Backend: BackendMemory},
		Breaker:    BreakerConfig{FailureRatio: 0.5},
	}
}

// --- Tests ---

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, BackendFile, cfg.Session.Backend)
	assert.NotEmpty(t, cfg.Session.Path)
	assert.Equal(t, "storefront:session", cfg.Session.RedisKey)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Zero(t, cfg.RateLimit.Max)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MinRequests)
	assert.Equal(t, 8, cfg.Enrichment.Concurrency)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "https://shop.example.com")
	t.Setenv("STOREFRONT_SESSION_BACKEND", "memory")

	cfg, err := LoadConfig(missingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", cfg.APIBaseURL)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
}

func TestLoadConfig_File(t *testing.T) {
	p := writeConfig(t, `
api_base_url: https://api.example.com
image_base_url: https://cdn.example.com/img
session:
  backend: redis
  redis_addr: redis:6379
  redis_key: shop:session
rate_limit:
  max: 10
  window: 30s
enrichment:
  concurrency: 2
`)

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "https://cdn.example.com/img", cfg.ImageBaseURL)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, "redis:6379", cfg.Session.RedisAddr)
	assert.Equal(t, "shop:session", cfg.Session.RedisKey)
	assert.Equal(t, 10, cfg.RateLimit.Max)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 2, cfg.Enrichment.Concurrency)
}

func TestLoadConfig_Invalid(t *testing.T) {
	p := writeConfig(t, "session:\n  backend: sqlite\n")

	_, err := LoadConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no scheme", mutate: func(c *Config) { c.APIBaseURL = "localhost:8000" }, wantErr: "invalid API base URL"},
		{name: "ftp", mutate: func(c *Config) { c.APIBaseURL = "ftp://host" }, wantErr: "invalid API base URL"},
		{name: "no host", mutate: func(c *Config) { c.APIBaseURL = "http://" }, wantErr: "invalid API base URL"},
		{name: "unknown backend", mutate: func(c *Config) { c.Session.Backend = "etcd" }, wantErr: "unknown session backend"},
		{name: "file without path", mutate: func(c *Config) { c.Session.Backend = BackendFile }, wantErr: "session path"},
		{name: "negative timeout", mutate: func(c *Config) { c.HTTP.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "ratio above one", mutate: func(c *Config) { c.Breaker.FailureRatio = 1.5 }, wantErr: "failure ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
