// Package config loads the gateway's YAML configuration file, the same way
// cryptoflow/config does: read, unmarshal, default, validate.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config values can be written as "2s" or
// "100ns" in YAML; time.Duration itself has no YAML unmarshaler and would
// otherwise only accept a raw integer nanosecond count.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("2s") or a bare integer
// nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var ns int64
	if err := value.Decode(&ns); err == nil {
		*d = Duration(ns)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\" or an integer nanosecond count")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Config is the root configuration document.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// GatewayConfig configures the core data-plane pipeline.
type GatewayConfig struct {
	Name             string          `yaml:"name"`
	Version          string          `yaml:"version"`
	Instruments      []string        `yaml:"instruments"`
	RingCapacity     int             `yaml:"ring_capacity"`
	ReconnectBackoff Duration        `yaml:"reconnect_backoff"`
	WorkerIdleSleep  Duration        `yaml:"worker_idle_sleep"`
	WebSocket        WebSocketConfig `yaml:"websocket"`
}

// WebSocketConfig identifies the upstream OKX public book endpoint.
type WebSocketConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig controls the periodic rate/latency reporter.
type MetricsConfig struct {
	RateInterval    Duration `yaml:"rate_interval"`
	LatencyInterval Duration `yaml:"latency_interval"`
}

// Load reads path, applies defaults for anything left unset, and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Gateway.RingCapacity == 0 {
		cfg.Gateway.RingCapacity = 4096
	}
	if cfg.Gateway.ReconnectBackoff == 0 {
		cfg.Gateway.ReconnectBackoff = Duration(2 * time.Second)
	}
	if cfg.Gateway.WorkerIdleSleep == 0 {
		cfg.Gateway.WorkerIdleSleep = Duration(100 * time.Nanosecond)
	}
	if cfg.Gateway.WebSocket.Host == "" {
		cfg.Gateway.WebSocket.Host = "ws.okx.com"
	}
	if cfg.Gateway.WebSocket.Port == "" {
		cfg.Gateway.WebSocket.Port = "443"
	}
	if cfg.Gateway.WebSocket.Path == "" {
		cfg.Gateway.WebSocket.Path = "/ws/v5/public"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.RateInterval == 0 {
		cfg.Metrics.RateInterval = Duration(5 * time.Second)
	}
	if cfg.Metrics.LatencyInterval == 0 {
		cfg.Metrics.LatencyInterval = Duration(60 * time.Second)
	}
}

func validate(cfg *Config) error {
	if cfg.Gateway.Name == "" {
		return fmt.Errorf("gateway.name is required")
	}
	if cfg.Gateway.RingCapacity <= 1 || cfg.Gateway.RingCapacity&(cfg.Gateway.RingCapacity-1) != 0 {
		return fmt.Errorf("gateway.ring_capacity must be a power of two greater than 1, got %d", cfg.Gateway.RingCapacity)
	}
	if cfg.Gateway.ReconnectBackoff <= 0 {
		return fmt.Errorf("gateway.reconnect_backoff must be greater than 0")
	}
	if cfg.Gateway.WorkerIdleSleep <= 0 {
		return fmt.Errorf("gateway.worker_idle_sleep must be greater than 0")
	}
	return nil
}
