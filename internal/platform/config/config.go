// Package config loads daemon and client configuration from file and
// environment via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the daemon and CLI.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Client        ClientConfig        `mapstructure:"client"`
	Data          DataConfig          `mapstructure:"data"`
	Settings      SettingsConfig      `mapstructure:"settings"`
	Refresh       RefreshConfig       `mapstructure:"refresh"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig holds the daemon's listen configuration.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// ClientConfig holds how foreground clients reach the daemon.
type ClientConfig struct {
	DaemonURL string `mapstructure:"daemon_url"`
}

// DataConfig holds local storage settings.
type DataConfig struct {
	Dir         string `mapstructure:"dir"`
	HistorySize int    `mapstructure:"history_size"`
}

// SettingsConfig seeds the runtime settings on first run; once the user
// saves settings through the protocol, the persisted copy wins.
type SettingsConfig struct {
	RefreshIntervalMs int      `mapstructure:"refresh_interval_ms"`
	TrackedDomains    []string `mapstructure:"tracked_domains"`
}

// RefreshConfig tunes the background refresher.
type RefreshConfig struct {
	Workers int `mapstructure:"workers"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SITEPULSE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", "127.0.0.1:8747")
	v.SetDefault("client.daemon_url", "ws://127.0.0.1:8747/ws")

	v.SetDefault("data.dir", defaultDataDir())
	v.SetDefault("data.history_size", 15)

	v.SetDefault("settings.refresh_interval_ms", 30000)
	v.SetDefault("settings.tracked_domains", []string{})

	v.SetDefault("refresh.workers", 4)

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.port", 9747)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "sitepulse")
	}
	return "./sitepulse-data"
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	if c.Client.DaemonURL == "" {
		return fmt.Errorf("client daemon URL is required")
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("data directory is required")
	}

	if c.Refresh.Workers < 1 {
		return fmt.Errorf("refresh workers must be >= 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Observability.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Observability.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Observability.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Observability.Logging.Format)
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Port <= 0 {
		return fmt.Errorf("metrics port must be positive when metrics are enabled")
	}

	return nil
}
