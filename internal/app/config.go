package app

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Session store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds the complete client configuration, loadable from environment
// variables (STOREFRONT_ prefix) or YAML config files.
type Config struct {
	APIBaseURL   string `default:"http://localhost:8000" env:"API_BASE_URL" yaml:"api_base_url" usage:"Storefront API base URL"`
	ImageBaseURL string `default:"" env:"IMAGE_BASE_URL" yaml:"image_base_url" usage:"Base URL for relative product image paths"`
	Session      SessionConfig    `yaml:"session"`
	HTTP         HTTPConfig       `yaml:"http"`
	RateLimit    RateLimitConfig  `yaml:"rate_limit"`
	Breaker      BreakerConfig    `yaml:"breaker"`
	Enrichment   EnrichmentConfig `yaml:"enrichment"`
}

// SessionConfig selects where the signed-in session is kept.
type SessionConfig struct {
	Backend   string `default:"file" yaml:"backend" usage:"Session store: memory, file or redis"`
	Path      string `default:"" yaml:"path" usage:"Session file path (file backend)"`
	RedisAddr string `default:"localhost:6379" yaml:"redis_addr" usage:"Redis address (redis backend)"`
	RedisDB   int    `default:"0" yaml:"redis_db" usage:"Redis database (redis backend)"`
	RedisKey  string `default:"storefront:session" yaml:"redis_key" usage:"Redis hash key (redis backend)"`
}

// HTTPConfig controls the API client.
type HTTPConfig struct {
	Timeout time.Duration `default:"30s" yaml:"timeout" usage:"Per-request timeout"`
}

// RateLimitConfig controls the client-side sliding window rate limiter.
// A zero Max disables it.
type RateLimitConfig struct {
	Max    int           `default:"0"  yaml:"max" usage:"Max requests per window"`
	Window time.Duration `default:"1m" yaml:"window" usage:"Rate limit window duration"`
}

// BreakerConfig controls the circuit breaker in front of the API.
type BreakerConfig struct {
	Enabled      bool          `default:"true" yaml:"enabled" usage:"Enable the circuit breaker"`
	MaxRequests  uint32        `default:"1" yaml:"max_requests" usage:"Requests allowed while half-open"`
	Interval     time.Duration `default:"60s" yaml:"interval" usage:"Closed state counter reset period"`
	Timeout      time.Duration `default:"30s" yaml:"timeout" usage:"Open state duration"`
	FailureRatio float64       `default:"0.5" yaml:"failure_ratio" usage:"Failure ratio that trips the breaker"`
	MinRequests  uint32        `default:"5" yaml:"min_requests" usage:"Requests before the ratio is evaluated"`
}

// EnrichmentConfig bounds the catalog lookups made while loading the cart.
type EnrichmentConfig struct {
	Concurrency int `default:"8" yaml:"concurrency" usage:"Parallel catalog lookups"`
}

// DefaultConfigFiles returns the config files read by LoadConfig, in order.
func DefaultConfigFiles() []string {
	files := []string{"storefront.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".config", "storefront", "config.yaml"))
	}
	return files
}

// LoadConfig loads configuration from environment variables and the given
// YAML files (DefaultConfigFiles when none are given). Flags are left to the
// command line parser.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultConfigFiles()
	}
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills values that depend on the environment.
func (c *Config) applyDefaults() {
	if c.Session.Path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Session.Path = filepath.Join(dir, "storefront", "session.json")
		} else {
			c.Session.Path = ".storefront-session.json"
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("invalid API base URL %q", c.APIBaseURL)
	}
	switch c.Session.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return errors.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.Backend == BackendFile && c.Session.Path == "" {
		return errors.New("session path is required for the file backend")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	if c.Breaker.FailureRatio < 0 || c.Breaker.FailureRatio > 1 {
		return errors.Errorf("breaker failure ratio %v out of range [0,1]", c.Breaker.FailureRatio)
	}
	return nil
}
