package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
	DataDir  string `json:"dataDir" yaml:"dataDir"`
	// Fsync is one of always|interval|never.
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`

	Logs           LogsConfig `json:"logs" yaml:"logs"`
	PushChannel    PushConfig `json:"pushChannel" yaml:"pushChannel"`
	AllowedOrigins []string   `json:"allowedOrigins" yaml:"allowedOrigins"`

	LogLevel  string `json:"logLevel" yaml:"logLevel"`
	LogFormat string `json:"logFormat" yaml:"logFormat"`
	LogOutput string `json:"logOutput" yaml:"logOutput"`
}

// LogsConfig captures the delivery limits of the calculator log.
type LogsConfig struct {
	// DedupWindowMs suppresses identical push submissions inside the window.
	DedupWindowMs int `json:"dedupWindowMs" yaml:"dedupWindowMs"`
	// RecentLimit bounds GET /api/logs.
	RecentLimit int `json:"recentLimit" yaml:"recentLimit"`
	// LongPollSeedLimit bounds the long-poll snapshot.
	LongPollSeedLimit int `json:"longPollSeedLimit" yaml:"longPollSeedLimit"`
	// LongPollIntervalMs paces long-poll emission.
	LongPollIntervalMs int `json:"longPollIntervalMs" yaml:"longPollIntervalMs"`
}

// PushConfig tunes the WebSocket observer channel.
type PushConfig struct {
	Path string `json:"path" yaml:"path"`
	// ObserverBuffer is the per-observer queue; a full queue drops events.
	ObserverBuffer int `json:"observerBuffer" yaml:"observerBuffer"`
	PingIntervalMs int `json:"pingIntervalMs" yaml:"pingIntervalMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:        ":5000",
		GRPCAddr:        ":50051",
		Fsync:           "always",
		FsyncIntervalMs: 5,
		Logs: LogsConfig{
			DedupWindowMs:      5000,
			RecentLimit:        10,
			LongPollSeedLimit:  5,
			LongPollIntervalMs: 3000,
		},
		PushChannel: PushConfig{
			Path:           "/ws",
			ObserverBuffer: 64,
			PingIntervalMs: 30000,
		},
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse json: %w", err)
		}
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be served.
func (c Config) Validate() error {
	switch c.Fsync {
	case "always", "interval", "never":
	default:
		return fmt.Errorf("config: invalid fsync %q; use always|interval|never", c.Fsync)
	}
	if c.HTTPAddr == "" {
		return errors.New("config: httpAddr is required")
	}
	if c.Logs.DedupWindowMs < 0 {
		return errors.New("config: logs.dedupWindowMs must be >= 0")
	}
	if c.Logs.RecentLimit <= 0 || c.Logs.LongPollSeedLimit <= 0 {
		return errors.New("config: logs limits must be > 0")
	}
	if c.Logs.LongPollIntervalMs <= 0 {
		return errors.New("config: logs.longPollIntervalMs must be > 0")
	}
	if c.PushChannel.ObserverBuffer <= 0 {
		return errors.New("config: pushChannel.observerBuffer must be > 0")
	}
	return nil
}

func (c LogsConfig) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMs) * time.Millisecond
}

func (c LogsConfig) LongPollInterval() time.Duration {
	return time.Duration(c.LongPollIntervalMs) * time.Millisecond
}

func (c PushConfig) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalMs) * time.Millisecond
}
