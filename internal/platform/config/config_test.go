package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != "127.0.0.1:8747" {
		t.Errorf("listen addr: expected 127.0.0.1:8747, got %s", cfg.Server.ListenAddr)
	}
	if cfg.Client.DaemonURL != "ws://127.0.0.1:8747/ws" {
		t.Errorf("daemon url: expected ws://127.0.0.1:8747/ws, got %s", cfg.Client.DaemonURL)
	}
	if cfg.Data.HistorySize != 15 {
		t.Errorf("history size: expected 15, got %d", cfg.Data.HistorySize)
	}
	if cfg.Settings.RefreshIntervalMs != 30000 {
		t.Errorf("refresh interval: expected 30000, got %d", cfg.Settings.RefreshIntervalMs)
	}
	if cfg.Refresh.Workers != 4 {
		t.Errorf("workers: expected 4, got %d", cfg.Refresh.Workers)
	}
	if cfg.Observability.Logging.Level != "info" {
		t.Errorf("log level: expected info, got %s", cfg.Observability.Logging.Level)
	}
	if cfg.Observability.Logging.Format != "json" {
		t.Errorf("log format: expected json, got %s", cfg.Observability.Logging.Format)
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}
	if cfg.Data.Dir == "" {
		t.Error("data dir should have a default")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  listen_addr: "127.0.0.1:9000"
data:
  history_size: 20
settings:
  refresh_interval_ms: 60000
  tracked_domains:
    - example.com
    - github.com
observability:
  logging:
    level: debug
    format: text
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen addr: expected 127.0.0.1:9000, got %s", cfg.Server.ListenAddr)
	}
	if cfg.Data.HistorySize != 20 {
		t.Errorf("history size: expected 20, got %d", cfg.Data.HistorySize)
	}
	if cfg.Settings.RefreshIntervalMs != 60000 {
		t.Errorf("refresh interval: expected 60000, got %d", cfg.Settings.RefreshIntervalMs)
	}
	if len(cfg.Settings.TrackedDomains) != 2 {
		t.Fatalf("tracked domains: expected 2, got %d", len(cfg.Settings.TrackedDomains))
	}
	if cfg.Observability.Logging.Level != "debug" {
		t.Errorf("log level: expected debug, got %s", cfg.Observability.Logging.Level)
	}
	// Unset keys keep their defaults.
	if cfg.Refresh.Workers != 4 {
		t.Errorf("workers: expected default 4, got %d", cfg.Refresh.Workers)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"empty daemon url", func(c *Config) { c.Client.DaemonURL = "" }},
		{"empty data dir", func(c *Config) { c.Data.Dir = "" }},
		{"zero workers", func(c *Config) { c.Refresh.Workers = 0 }},
		{"bad log level", func(c *Config) { c.Observability.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Observability.Logging.Format = "xml" }},
		{"bad metrics port", func(c *Config) { c.Observability.Metrics.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_MetricsPortIgnoredWhenDisabled(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Observability.Metrics.Enabled = false
	cfg.Observability.Metrics.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error with metrics disabled, got %v", err)
	}
}
