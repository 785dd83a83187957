package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for GAudit Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	// Path is the filesystem path to the SQLite database file.
	// Resolved once at startup; pools are bound to it for their lifetime.
	Path string `yaml:"path"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int `yaml:"busy_timeout"`

	// PoolCapacity is the maximum number of idle handles kept per pool.
	PoolCapacity int `yaml:"pool_capacity"`
}

// AuditConfig contains settings for the audit sequence itself.
type AuditConfig struct {
	// Domain is the workspace domain being audited, if applicable.
	Domain string `yaml:"domain"`

	// APIServices lists the API surfaces credentials are expected to cover.
	// Checks whose required service is missing report a WARNING finding.
	APIServices []string `yaml:"api_services"`

	// SkippedServices lists services intentionally excluded from this run.
	SkippedServices []string `yaml:"skipped_services"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default database filename used when nothing else is configured.
// Matches the historical behaviour of writing gaudit.db in the working directory.
const defaultDatabasePath = "gaudit.db"

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// An empty path means "no config file": defaults plus environment overrides.
// Environment variables follow the pattern GAUDIT_SECTION_KEY, for example
// GAUDIT_DB_PATH or GAUDIT_LOG_LEVEL.
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
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
		Database: DatabaseConfig{
			Path:         defaultDatabasePath,
			BusyTimeout:  5,
			PoolCapacity: 5,
		},
		Audit: AuditConfig{
			APIServices: []string{
				"admin_sdk",
				"drive_api",
				"gmail_api",
				"groups_settings_api",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GAUDIT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GAUDIT_DOMAIN"); v != "" {
		cfg.Audit.Domain = v
	}
	if v := os.Getenv("GAUDIT_SKIPPED_SERVICES"); v != "" {
		cfg.Audit.SkippedServices = splitList(v)
	}
	if v := os.Getenv("GAUDIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GAUDIT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// splitList splits a comma-separated environment value into trimmed entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, "database.busy_timeout must not be negative")
	}
	if c.Database.PoolCapacity < 1 {
		errs = append(errs, "database.pool_capacity must be at least 1")
	}
	if len(c.Audit.APIServices) == 0 {
		errs = append(errs, "audit.api_services must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
