package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Env      string `mapstructure:"env"` // development | production
}

// Production disables dev fallback and endpoint probing.
func (a AppConfig) Production() bool {
	return strings.EqualFold(strings.TrimSpace(a.Env), "production")
}

// APIConfig points at the forum service.
type APIConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	Timeout     string   `mapstructure:"timeout"` // duration string, e.g., "8s"
	DevFallback bool     `mapstructure:"dev_fallback"`
	DevProbe    bool     `mapstructure:"dev_probe"`
	ProbeBases  []string `mapstructure:"probe_bases"`
}

// AuthConfig selects where the CLI keeps its access token.
type AuthConfig struct {
	Store     string `mapstructure:"store"` // file | redis
	TokenFile string `mapstructure:"token_file"`
	RedisKey  string `mapstructure:"redis_key"`
	TokenTTL  string `mapstructure:"token_ttl"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OpenAIConfig enables summary drafting when APIKey is set.
type OpenAIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
}

// GatewayConfig controls the HTTP action gateway.
type GatewayConfig struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// WatcherConfig controls the pending merge job watcher.
type WatcherConfig struct {
	Topics     []string `mapstructure:"topics"`
	Interval   string   `mapstructure:"interval"`    // duration string, e.g., "5m"
	PendingTTL string   `mapstructure:"pending_ttl"` // e.g., "168h"
}

// Config is the top-level configuration structure.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Redis   RedisConfig   `mapstructure:"redis"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Watcher WatcherConfig `mapstructure:"watcher"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:9080"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == "" {
		c.API.Timeout = "8s"
	}
	if c.Auth.Store == "" {
		c.Auth.Store = "file"
	}
	if c.Auth.TokenFile == "" {
		c.Auth.TokenFile = defaultTokenFile()
	}
	if c.Auth.RedisKey == "" {
		c.Auth.RedisKey = "consensus:token:default"
	}
	if c.Auth.TokenTTL == "" {
		c.Auth.TokenTTL = "720h"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = ":8088"
	}
	if c.Watcher.Interval == "" {
		c.Watcher.Interval = "5m"
	}
	if c.Watcher.PendingTTL == "" {
		c.Watcher.PendingTTL = "168h"
	}
}

// Duration parses s, returning def when s is empty or invalid.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "consensus-bridge", "token")
}
