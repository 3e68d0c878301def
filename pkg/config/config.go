package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ratio-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3680"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Ratio compliance configuration
	Ratio RatioConfig `yaml:"ratio"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ratio"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ratio_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RatioConfig holds ratio compliance subsystem settings.
type RatioConfig struct {
	// PolicyPath is the path to the age-group ratio policy YAML file.
	PolicyPath string `yaml:"policy_path" env:"RATIO_POLICY_PATH" env-default:"policy.yaml"`

	// WarningThresholdPercent is the default compliance percentage at which
	// a compliant snapshot is surfaced as approaching the ratio ceiling.
	WarningThresholdPercent int `yaml:"warning_threshold_percent" env:"RATIO_WARNING_THRESHOLD_PERCENT" env-default:"90"`

	// RetentionDays is the default horizon for the retention cleanup operation.
	RetentionDays int `yaml:"retention_days" env:"RATIO_RETENTION_DAYS" env-default:"365"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD) must come
// from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Ratio.WarningThresholdPercent <= 0 || c.Ratio.WarningThresholdPercent > 100 {
		return fmt.Errorf("ratio.warning_threshold_percent must be in (0, 100], got %d", c.Ratio.WarningThresholdPercent)
	}
	if c.Ratio.RetentionDays <= 0 {
		return fmt.Errorf("ratio.retention_days must be positive, got %d", c.Ratio.RetentionDays)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
