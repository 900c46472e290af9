// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BackendConfig struct {
	BaseURL      string        `yaml:"base_url"`
	MediaBaseURL string        `yaml:"media_base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	Token        string        `yaml:"token"`      // optional bootstrap bearer token
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst        int           `yaml:"burst"`
}

type PaymentConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	MaxAttempts   int           `yaml:"max_attempts"`
	RedirectDelay time.Duration `yaml:"redirect_delay"`
	// Checkout initiations allowed per phone per window (needs redis).
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type PlaybackConfig struct {
	ProgressInterval  time.Duration `yaml:"progress_interval"`
	ControlsHideAfter time.Duration `yaml:"controls_hide_after"`
	SkipStep          time.Duration `yaml:"skip_step"`
	Autoplay          *bool         `yaml:"autoplay"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite | redis
	Path   string `yaml:"path"`   // sqlite file
}

type RedisConfig struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	// Catalog cache; RefreshInterval 0 disables background refresh.
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type UIConfig struct {
	Locale string `yaml:"locale"` // en | sw
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Payment  PaymentConfig  `yaml:"payment"`
	Playback PlaybackConfig `yaml:"playback"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	HTTP     HTTPConfig     `yaml:"http"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies .env / environment
// overrides and defaults, then validates. A missing file is allowed when the
// environment supplies the backend URL.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLIXGO_API_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("FLIXGO_MEDIA_URL"); v != "" {
		cfg.Backend.MediaBaseURL = v
	}
	if v := os.Getenv("FLIXGO_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("FLIXGO_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("FLIXGO_LOCALE"); v != "" {
		cfg.UI.Locale = v
	}
}

// applyDefaults mirrors the web client's constants.
func applyDefaults(cfg *Config) {
	if cfg.Backend.MediaBaseURL == "" {
		cfg.Backend.MediaBaseURL = cfg.Backend.BaseURL
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 15 * time.Second
	}
	if cfg.Backend.Burst <= 0 {
		cfg.Backend.Burst = 1
	}
	if cfg.Payment.PollInterval <= 0 {
		cfg.Payment.PollInterval = 5 * time.Second
	}
	if cfg.Payment.MaxAttempts <= 0 {
		cfg.Payment.MaxAttempts = 36
	}
	if cfg.Payment.RedirectDelay <= 0 {
		cfg.Payment.RedirectDelay = 1500 * time.Millisecond
	}
	if cfg.Payment.RateLimit <= 0 {
		cfg.Payment.RateLimit = 3
	}
	if cfg.Payment.RateWindow <= 0 {
		cfg.Payment.RateWindow = time.Minute
	}
	if cfg.Playback.ProgressInterval <= 0 {
		cfg.Playback.ProgressInterval = 5 * time.Second
	}
	if cfg.Playback.ControlsHideAfter <= 0 {
		cfg.Playback.ControlsHideAfter = 3 * time.Second
	}
	if cfg.Playback.SkipStep <= 0 {
		cfg.Playback.SkipStep = 10 * time.Second
	}
	if cfg.Playback.Autoplay == nil {
		on := true
		cfg.Playback.Autoplay = &on
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = "flixgo.db"
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "flixgo:"
	}
	if cfg.Redis.CacheTTL <= 0 {
		cfg.Redis.CacheTTL = 5 * time.Minute
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8085
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.UI.Locale == "" {
		cfg.UI.Locale = "en"
	}
	cfg.UI.Locale = strings.ToLower(cfg.UI.Locale)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate performs minimal sanity checks.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	switch c.Store.Driver {
	case "memory", "sqlite":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for store.driver=redis")
		}
	default:
		return fmt.Errorf("store.driver %q not supported", c.Store.Driver)
	}
	if c.Backend.RateLimit < 0 {
		return errors.New("backend.rate_limit must be >= 0")
	}
	return nil
}
