package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONSENSUS_WATCHER_TOPICS", "t1,t2")
	t.Setenv("CONSENSUS_WATCHER_INTERVAL", "1m")
	t.Setenv("CONSENSUS_WATCHER_PENDING_TTL", "24h")
	t.Setenv("CONSENSUS_AUTH_TOKEN_TTL", "1h")
	t.Setenv("CONSENSUS_AUTH_REDIS_KEY", "consensus:token:ci")
	t.Setenv("CONSENSUS_API_PROBE_BASES", "http://a:1,http://b:2")
	t.Setenv("CONSENSUS_OPENAI_LANGUAGE", "French")
	t.Setenv("CONSENSUS_GATEWAY_ALLOW_ORIGINS", "http://ui.local")

	cfg, err := loadConfig(viper.New())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if want := []string{"t1", "t2"}; !reflect.DeepEqual(cfg.Watcher.Topics, want) {
		t.Errorf("watcher.topics = %v, want %v", cfg.Watcher.Topics, want)
	}
	if cfg.Watcher.Interval != "1m" || cfg.Watcher.PendingTTL != "24h" {
		t.Errorf("watcher = %+v", cfg.Watcher)
	}
	if cfg.Auth.TokenTTL != "1h" || cfg.Auth.RedisKey != "consensus:token:ci" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if want := []string{"http://a:1", "http://b:2"}; !reflect.DeepEqual(cfg.API.ProbeBases, want) {
		t.Errorf("api.probe_bases = %v, want %v", cfg.API.ProbeBases, want)
	}
	if cfg.OpenAI.Language != "French" {
		t.Errorf("openai.language = %q", cfg.OpenAI.Language)
	}
	if want := []string{"http://ui.local"}; !reflect.DeepEqual(cfg.Gateway.AllowOrigins, want) {
		t.Errorf("gateway.allow_origins = %v, want %v", cfg.Gateway.AllowOrigins, want)
	}
}

func TestLoadConfigEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api:\n  base_url: http://file:9080\nwatcher:\n  topics: [f1]\n  interval: 2m\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
	t.Setenv("CONSENSUS_WATCHER_INTERVAL", "30s")

	cfg, err := loadConfig(viper.New())
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.API.BaseURL != "http://file:9080" {
		t.Errorf("api.base_url = %q", cfg.API.BaseURL)
	}
	if !reflect.DeepEqual(cfg.Watcher.Topics, []string{"f1"}) {
		t.Errorf("watcher.topics = %v", cfg.Watcher.Topics)
	}
	if cfg.Watcher.Interval != "30s" {
		t.Errorf("watcher.interval = %q, want env value", cfg.Watcher.Interval)
	}
	if cfg.Auth.TokenTTL != "720h" {
		t.Errorf("auth.token_ttl = %q, want default", cfg.Auth.TokenTTL)
	}
}
