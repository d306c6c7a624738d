package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for OpsDeck Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string              `yaml:"host"`
	Port     int                 `yaml:"port"`
	Timeouts ServerTimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig          `yaml:"cors"`
}

// ServerTimeoutConfig contains HTTP timeout settings in seconds.
type ServerTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains authentication and session settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens. Required, minimum 32 characters.
	// Always set via OPSDECK_JWT_SECRET in production.
	JWTSecret string `yaml:"jwt_secret"`

	// SessionTTL is how long an idle session stays valid (minutes).
	SessionTTL int `yaml:"session_ttl"`

	// MinPasswordLength is the minimum accepted password length at
	// registration. Zero disables the check (the historical default).
	MinPasswordLength int `yaml:"min_password_length"`
}

// AssistantConfig describes the chat assistant providers surfaced on the
// settings page. The auth core only gates access to them; API keys are
// resolved from the environment or from session-only overrides, never
// from this file.
type AssistantConfig struct {
	DefaultProvider string           `yaml:"default_provider"`
	Providers       []ProviderConfig `yaml:"providers"`
}

// ProviderConfig describes one assistant provider.
type ProviderConfig struct {
	ID     string   `yaml:"id"`
	Label  string   `yaml:"label"`
	KeyEnv string   `yaml:"key_env"`
	Models []string `yaml:"models"`
}

// Load reads configuration from a YAML file with environment overrides.
//
// Precedence (lowest to highest): built-in defaults, YAML file, environment
// variables (OPSDECK_SECTION_KEY). The result is validated before return.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: ServerTimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/opsdeck.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			SessionTTL:        480,
			MinPasswordLength: 0,
		},
		Assistant: AssistantConfig{
			DefaultProvider: "openai",
			Providers: []ProviderConfig{
				{
					ID:     "openai",
					Label:  "OpenAI",
					KeyEnv: "OPENAI_API_KEY",
					Models: []string{"gpt-4o-mini", "gpt-4o"},
				},
				{
					ID:     "anthropic",
					Label:  "Anthropic",
					KeyEnv: "ANTHROPIC_API_KEY",
					Models: []string{"claude-3-5-haiku-latest", "claude-sonnet-4-5"},
				},
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: OPSDECK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPSDECK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("OPSDECK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPSDECK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("OPSDECK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OPSDECK_JWT_SECRET"); v != "" {
		cfg.Security.JWTSecret = v
	}
}

// minJWTSecretLength is the minimum accepted signing secret length.
// Short secrets make forged session tokens feasible.
const minJWTSecretLength = 32

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Security.JWTSecret == "" {
		errs = append(errs, "security.jwt_secret is required (set OPSDECK_JWT_SECRET)")
	} else if len(c.Security.JWTSecret) < minJWTSecretLength {
		errs = append(errs, "security.jwt_secret must be at least 32 characters")
	}

	if c.Security.SessionTTL < 1 {
		errs = append(errs, "security.session_ttl must be at least 1 minute")
	}

	if c.Security.MinPasswordLength < 0 {
		errs = append(errs, "security.min_password_length must not be negative")
	}

	seen := make(map[string]bool)
	for _, p := range c.Assistant.Providers {
		if p.ID == "" {
			errs = append(errs, "assistant.providers entries require an id")
			continue
		}
		if seen[p.ID] {
			errs = append(errs, fmt.Sprintf("assistant provider %q declared twice", p.ID))
		}
		seen[p.ID] = true
	}
	if c.Assistant.DefaultProvider != "" && len(c.Assistant.Providers) > 0 && !seen[c.Assistant.DefaultProvider] {
		errs = append(errs, "assistant.default_provider must match a declared provider")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Provider returns the provider config for the given ID, or false if unknown.
func (c *AssistantConfig) Provider(id string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// GetSessionTTL returns the session lifetime as a Duration.
func (c *Config) GetSessionTTL() time.Duration {
	return time.Duration(c.Security.SessionTTL) * time.Minute
}
