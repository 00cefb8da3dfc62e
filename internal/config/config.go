// Package config provides configuration management for pressfeed.
//
// Settings resolve in three layers: built-in defaults, then an optional
// YAML config file, then environment variables with the PRESSFEED_ prefix.
// Environment variables always win.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is consulted when PRESSFEED_CONFIG is not set.
const DefaultConfigFile = "pressfeed.yaml"

// Config holds all configuration settings for the pressfeed service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Backup   BackupConfig   `yaml:"backup"`
	Features FeaturesConfig `yaml:"features"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 5000, the historical webhook port)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains profile store configuration.
type StorageConfig struct {
	// Engine selects the storage engine: jsonfile, sqlite or postgres
	// (default: jsonfile).
	Engine string `yaml:"engine"`

	// DataPath is the data directory for the jsonfile and sqlite engines
	// and the shared events directory (default: ./data).
	DataPath string `yaml:"data_path"`

	// PostgresDSN is the connection string for the postgres engine.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	Mode     string `yaml:"mode"`      // development or production (default: development)
	APIToken string `yaml:"api_token"` // Bearer token required on /api/ in production
}

// BackupConfig contains snapshot backup configuration.
type BackupConfig struct {
	Enabled          bool   `yaml:"enabled"`           // Enable periodic snapshots (default: false)
	Interval         string `yaml:"interval"`          // Snapshot interval duration (default: 24h)
	Path             string `yaml:"path"`              // Snapshot directory (default: ./backups)
	Verify           bool   `yaml:"verify"`            // Verify snapshots after creation (default: true)
	RetentionHourly  int    `yaml:"retention_hourly"`  // Hourly snapshots to keep (default: 24)
	RetentionDaily   int    `yaml:"retention_daily"`   // Daily snapshots to keep (default: 7)
	RetentionWeekly  int    `yaml:"retention_weekly"`  // Weekly snapshots to keep (default: 4)
	RetentionMonthly int    `yaml:"retention_monthly"` // Monthly snapshots to keep (default: 12)
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnableWebhook bool `yaml:"enable_webhook"` // Serve GET /feedback (default: true)
	EnableAPI     bool `yaml:"enable_api"`     // Serve the JSON API (default: true)
	EnableEvents  bool `yaml:"enable_events"`  // Emit and relay feedback events (default: true)
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 5000,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "jsonfile",
			DataPath: "./data",
		},
		Security: SecurityConfig{
			Mode: "development",
		},
		Backup: BackupConfig{
			Interval:         "24h",
			Path:             "./backups",
			Verify:           true,
			RetentionHourly:  24,
			RetentionDaily:   7,
			RetentionWeekly:  4,
			RetentionMonthly: 12,
		},
		Features: FeaturesConfig{
			EnableWebhook: true,
			EnableAPI:     true,
			EnableEvents:  true,
		},
	}
}

// Load resolves the full configuration: defaults, then the YAML file named
// by PRESSFEED_CONFIG (or DefaultConfigFile when present), then environment
// variables.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("PRESSFEED_CONFIG")
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// loadFile overlays settings from a YAML file. Unknown keys are rejected so
// typos fail loudly instead of being silently ignored.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays PRESSFEED_* environment variables.
func (c *Config) applyEnv() {
	setInt(&c.Server.Port, "PRESSFEED_PORT")
	setString(&c.Server.Host, "PRESSFEED_HOST")

	setString(&c.Storage.Engine, "PRESSFEED_STORAGE_ENGINE")
	setString(&c.Storage.DataPath, "PRESSFEED_DATA_PATH")
	setString(&c.Storage.PostgresDSN, "PRESSFEED_POSTGRES_DSN")

	setString(&c.Security.Mode, "PRESSFEED_SECURITY_MODE")
	setString(&c.Security.APIToken, "PRESSFEED_API_TOKEN")

	setBool(&c.Backup.Enabled, "PRESSFEED_BACKUP_ENABLED")
	setString(&c.Backup.Interval, "PRESSFEED_BACKUP_INTERVAL")
	setString(&c.Backup.Path, "PRESSFEED_BACKUP_PATH")
	setBool(&c.Backup.Verify, "PRESSFEED_BACKUP_VERIFY")
	setInt(&c.Backup.RetentionHourly, "PRESSFEED_BACKUP_RETENTION_HOURLY")
	setInt(&c.Backup.RetentionDaily, "PRESSFEED_BACKUP_RETENTION_DAILY")
	setInt(&c.Backup.RetentionWeekly, "PRESSFEED_BACKUP_RETENTION_WEEKLY")
	setInt(&c.Backup.RetentionMonthly, "PRESSFEED_BACKUP_RETENTION_MONTHLY")

	setBool(&c.Features.EnableWebhook, "PRESSFEED_ENABLE_WEBHOOK")
	setBool(&c.Features.EnableAPI, "PRESSFEED_ENABLE_API")
	setBool(&c.Features.EnableEvents, "PRESSFEED_ENABLE_EVENTS")
}

// setString overwrites dst when the environment variable is set and non-empty.
func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// setInt overwrites dst when the environment variable parses as an integer;
// unparseable values are ignored.
func setInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			*dst = intValue
		}
	}
}

// setBool overwrites dst for recognized boolean spellings; anything else is
// ignored.
func setBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			*dst = true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			*dst = false
		}
	}
}
