package config

import (
	"testing"
	"time"
)

func TestFillDefaults(t *testing.T) {
	var c Config
	c.FillDefaults()
	if c.API.BaseURL != "http://localhost:9080" || c.API.Timeout != "8s" {
		t.Errorf("api defaults = %+v", c.API)
	}
	if c.Auth.Store != "file" || c.Auth.TokenFile == "" {
		t.Errorf("auth defaults = %+v", c.Auth)
	}
	if c.Gateway.Addr != ":8088" || c.Watcher.Interval != "5m" {
		t.Errorf("gateway/watcher defaults = %+v %+v", c.Gateway, c.Watcher)
	}
	if c.App.Production() {
		t.Errorf("default env should not be production")
	}
}

func TestFillDefaultsKeepsValues(t *testing.T) {
	c := Config{App: AppConfig{Env: "Production"}, API: APIConfig{BaseURL: "https://forum.example/"}}
	c.FillDefaults()
	if c.API.BaseURL != "https://forum.example" {
		t.Errorf("BaseURL = %q", c.API.BaseURL)
	}
	if !c.App.Production() {
		t.Errorf("Production() = false for %q", c.App.Env)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"8s", 8 * time.Second},
		{" 5m ", 5 * time.Minute},
		{"", time.Minute},
		{"soon", time.Minute},
		{"-1s", time.Minute},
	}
	for _, tt := range tests {
		if got := Duration(tt.in, time.Minute); got != tt.want {
			t.Errorf("Duration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
