package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/areaelements/internal/areaelement"
)

// Content sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type location struct {
	Path string `env:"AREA_CONFIG" envDefault:"config/areaelements.yaml"`
}

// ConfigPath returns the config file location from AREA_CONFIG, falling back
// to config/areaelements.yaml.
func ConfigPath() (string, error) {
	var loc location
	if err := env.Parse(&loc); err != nil {
		return "", fmt.Errorf("parse env: %w", err)
	}
	return loc.Path, nil
}

// AreaElements holds all configuration for the area element engine.
type AreaElements struct {
	LogLevel string `yaml:"log_level" env:"AREA_LOG_LEVEL"`

	// Content
	ContentSource string `yaml:"content_source" env:"AREA_CONTENT_SOURCE"` // file | postgres
	ContentPath   string `yaml:"content_path" env:"AREA_CONTENT_PATH"`

	// Database (content_source: postgres)
	Database DatabaseConfig `yaml:"database"`

	// Ledgers
	Ledger LedgerConfig `yaml:"ledger"`
}

// LedgerConfig holds the ledger tunables.
type LedgerConfig struct {
	MaxElements       int    `yaml:"max_elements" env:"AREA_MAX_ELEMENTS"`
	OverflowPolicy    string `yaml:"overflow_policy" env:"AREA_OVERFLOW_POLICY"`         // evict_oldest | reject_new
	StableMaxElements int    `yaml:"stable_max_elements" env:"AREA_STABLE_MAX_ELEMENTS"` // 0 disables
	RatePercent       int    `yaml:"rate_percent" env:"AREA_RATE_PERCENT"`               // per element, signed
}

// Policy returns the parsed overflow policy.
func (l LedgerConfig) Policy() (areaelement.OverflowPolicy, error) {
	return areaelement.ParsePolicy(l.OverflowPolicy)
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"AREA_DB_HOST"`
	Port     int    `yaml:"port" env:"AREA_DB_PORT"`
	User     string `yaml:"user" env:"AREA_DB_USER"`
	Password string `yaml:"password" env:"AREA_DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"AREA_DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"AREA_DB_SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultAreaElements returns AreaElements config with sensible defaults.
func DefaultAreaElements() AreaElements {
	return AreaElements{
		LogLevel:      "info",
		ContentSource: SourceFile,
		ContentPath:   "config/content.yaml",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "areaelements",
			Password: "areaelements",
			DBName:   "areaelements",
			SSLMode:  "disable",
		},
		Ledger: LedgerConfig{
			MaxElements:       8,
			OverflowPolicy:    "evict_oldest",
			StableMaxElements: 0,
			RatePercent:       10,
		},
	}
}

// Validate rejects configurations the ledger cannot run with.
func (c AreaElements) Validate() error {
	if c.Ledger.MaxElements < 1 {
		return fmt.Errorf("ledger.max_elements must be at least 1, got %d", c.Ledger.MaxElements)
	}
	if c.Ledger.StableMaxElements < 0 {
		return fmt.Errorf("ledger.stable_max_elements must not be negative, got %d", c.Ledger.StableMaxElements)
	}
	if _, err := c.Ledger.Policy(); err != nil {
		return fmt.Errorf("ledger.overflow_policy: %w", err)
	}
	switch c.ContentSource {
	case SourceFile:
		if c.ContentPath == "" {
			return fmt.Errorf("content_path is required for content_source %q", SourceFile)
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("unknown content_source %q", c.ContentSource)
	}
	return nil
}

// LoadAreaElements loads config from a YAML file, then applies AREA_*
// environment overrides. If the file doesn't exist, defaults are used.
func LoadAreaElements(path string) (AreaElements, error) {
	cfg := DefaultAreaElements()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
