package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

// FileEnv names the environment variable holding an optional TOML file path
const FileEnv = "TINYFS_CONFIG"

// Approval modes for mutating operations that ask for confirmation
const (
	ApprovalPrompt = "prompt"
	ApprovalAllow  = "allow"
	ApprovalDeny   = "deny"
)

// Config holds all application configuration.
// Defaults live in Default; fields carry no envconfig defaults so that an
// unset variable never overrides a value read from the config file.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Server    ServerConfig    `toml:"server"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// WorkspaceConfig holds the filesystem mediation settings.
type WorkspaceConfig struct {
	Root        string `envconfig:"TINYFS_WORKSPACE" toml:"root"`
	HistorySize int    `envconfig:"TINYFS_HISTORY_SIZE" toml:"history_size"`
	AutoConfirm bool   `envconfig:"TINYFS_AUTO_CONFIRM" toml:"auto_confirm"`
	Approval    string `envconfig:"TINYFS_APPROVAL" toml:"approval"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port"`
	Host string `envconfig:"HOST" toml:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
	// Global applies one limit to all clients instead of one per IP
	Global            bool `envconfig:"RATE_LIMIT_GLOBAL" toml:"global"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" toml:"enabled"`
}

// Load reads the file named by TINYFS_CONFIG, if any, then applies
// environment variables on top.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile starts from Default, overlays the TOML file at path (skipped when
// path is empty) and then the environment. The result is validated.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config file %s: %s", path, strict.String())
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Root:        ".",
			HistorySize: 100,
			AutoConfirm: false,
			Approval:    ApprovalPrompt,
		},
		Server: ServerConfig{
			Port: "8085",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Workspace.Root == "" {
		return errors.New("workspace root must not be empty")
	}
	if c.Workspace.HistorySize < 1 {
		return fmt.Errorf("history size must be at least 1, got %d", c.Workspace.HistorySize)
	}
	switch c.Workspace.Approval {
	case ApprovalPrompt, ApprovalAllow, ApprovalDeny:
	default:
		return fmt.Errorf("unknown approval mode %q (want prompt, allow or deny)", c.Workspace.Approval)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond < 1 || c.RateLimit.Burst < 1) {
		return errors.New("rate limit requires positive requests per second and burst")
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
