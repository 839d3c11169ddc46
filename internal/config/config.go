// Package config provides configuration types and defaults for the action service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/malikkrehic/action/internal/log"
	"github.com/malikkrehic/action/internal/tracing"
)

// Config holds all configuration options.
type Config struct {
	HTTP        HTTPConfig        `mapstructure:"http"`
	MCP         MCPConfig         `mapstructure:"mcp"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Tracing     tracing.Config    `mapstructure:"tracing"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Log         LogConfig         `mapstructure:"log"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"ACTION_HTTP_ENABLED"`
	Addr    string `mapstructure:"addr" env:"ACTION_HTTP_ADDR"` // host:port, port 0 picks a free port
	// ReadHeaderTimeout bounds how long a client may take to send headers.
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"ACTION_MCP_ENABLED"`
	Name    string `mapstructure:"name"` // implementation name announced to clients
}

// StorageConfig locates the SQLite database used by the built-in actions.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" env:"ACTION_DB_PATH"`
}

// IdempotencyConfig configures replay of results for repeated Idempotency-Key requests.
type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LogConfig configures the debug log.
type LogConfig struct {
	Debug bool   `mapstructure:"debug" env:"ACTION_DEBUG"`
	Level string `mapstructure:"level" env:"ACTION_LOG_LEVEL"` // debug, info, warn, error
	File  string `mapstructure:"file" env:"ACTION_LOG_FILE"`
}

// DefaultDBPath returns ~/.action/action.db, or action.db when the home
// directory is unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "action.db"
	}
	return filepath.Join(home, ".action", "action.db")
}

// DefaultTracesFilePath returns ~/.config/action/traces/traces.jsonl or empty
// string if the home dir is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "action", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Enabled:           true,
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 10 * time.Second,
		},
		MCP: MCPConfig{
			Enabled: false,
			Name:    "action",
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath(),
		},
		Tracing: tracing.DefaultConfig(),
		Idempotency: IdempotencyConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
			File:  "debug.log",
		},
	}
}

// ApplyEnv overrides cfg with ACTION_* environment variables. Unset variables
// leave the loaded values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.HTTP.Enabled && strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required when http is enabled")
	}
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Idempotency.Enabled && c.Idempotency.TTL < 0 {
		return fmt.Errorf("idempotency.ttl must not be negative, got %v", c.Idempotency.TTL)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Action service configuration

# HTTP API (GET /actions, POST /actions, GET /health)
http:
  enabled: true
  addr: 127.0.0.1:8080          # host:port to listen on (env: ACTION_HTTP_ADDR)
  read_header_timeout: 10s

# Expose every action as an MCP tool over stdio
mcp:
  enabled: false
  name: action

# SQLite database used by create-user and create-chat
storage:
  # db_path: ~/.action/action.db  # (env: ACTION_DB_PATH)

# Replay results for repeated requests carrying the same Idempotency-Key header
idempotency:
  enabled: true
  ttl: 10m

# Debug logging (enable with --debug or ACTION_DEBUG=1)
log:
  level: info                   # debug, info, warn, error
  file: debug.log

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/action/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
