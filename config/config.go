// Package config loads runtime settings from the environment (and an
// optional .env file) on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port      int    `koanf:"port"`
	DBConnect string `koanf:"db_connect"`
	DBName    string `koanf:"db_name"`

	TokenSecret string        `koanf:"token_secret"`
	TokenTTL    time.Duration `koanf:"token_ttl"`

	// Media host. CloudName is the bucket.
	CloudName      string `koanf:"cloud_name"`
	CloudAPIKey    string `koanf:"cloud_api_key"`
	CloudAPISecret string `koanf:"cloud_api_secret"`
	CloudRegion    string `koanf:"cloud_region"`
	CloudEndpoint  string `koanf:"cloud_endpoint"`
	CloudPublicURL string `koanf:"cloud_public_url"`

	RedisAddr string        `koanf:"redis_addr"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`

	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	CORSOrigins string `koanf:"cors_origins"`

	// TrustedProxies lists peer IPs whose X-Forwarded-For header is honoured.
	TrustedProxies string `koanf:"trusted_proxies"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

var ErrMissingSecret = errors.New("config: TOKEN_SECRET is required")

func defaults() Config {
	return Config{
		Port:           10000,
		DBName:         "recipehub",
		TokenTTL:       12 * time.Hour,
		CloudRegion:    "us-east-1",
		CacheTTL:       time.Minute,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
		CORSOrigins:    "*",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load applies defaults, then .env (if present), then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	known := k.All()
	transform := func(key string) string {
		key = strings.ToLower(key)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}
	if err := k.Load(env.Provider("", ".", transform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return ErrMissingSecret
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: invalid TOKEN_TTL %s", c.TokenTTL)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Origins splits CORS_ORIGINS on commas.
func (c *Config) Origins() []string {
	out := splitList(c.CORSOrigins)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// Proxies splits TRUSTED_PROXIES on commas. Empty means no proxy is trusted.
func (c *Config) Proxies() []string {
	return splitList(c.TrustedProxies)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// MediaConfigured reports whether enough media-host settings are present to
// build an uploader.
func (c *Config) MediaConfigured() bool {
	return c.CloudName != "" && c.CloudAPIKey != "" && c.CloudAPISecret != ""
}

// InMemory reports whether the process should run against the in-process store.
func (c *Config) InMemory() bool {
	return c.DBConnect == ""
}
