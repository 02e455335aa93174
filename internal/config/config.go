// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from PUBCHEM_* environment
// variables.
type Config struct {
	// Engine.
	Workers       int           `env:"PUBCHEM_WORKERS" envDefault:"4"`
	StatusTTL     time.Duration `env:"PUBCHEM_STATUS_TTL" envDefault:"1h"`
	SweepInterval time.Duration `env:"PUBCHEM_SWEEP_INTERVAL" envDefault:"5m"`

	// PubChem client.
	BaseURL     string        `env:"PUBCHEM_BASE_URL" envDefault:"https://pubchem.ncbi.nlm.nih.gov/rest/pug"`
	HTTPTimeout time.Duration `env:"PUBCHEM_HTTP_TIMEOUT" envDefault:"10s"`
	SDFTimeout  time.Duration `env:"PUBCHEM_SDF_TIMEOUT" envDefault:"60s"`
	Retries     int           `env:"PUBCHEM_RETRIES" envDefault:"3"`

	// Local state. CacheDB defaults to <DataDir>/cache.db; an empty DataDir
	// resolves to ~/.pubchem-mcp.
	DataDir string `env:"PUBCHEM_DATA_DIR"`
	CacheDB string `env:"PUBCHEM_CACHE_DB"`

	// Optional HTTP surface; empty leaves it disabled.
	HTTPAddr string `env:"PUBCHEM_HTTP_ADDR"`

	// Logging. An empty LogFile logs to stderr only.
	LogLevel string `env:"PUBCHEM_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"PUBCHEM_LOG_FILE"`

	// Batch processing.
	BatchThrottle time.Duration `env:"PUBCHEM_BATCH_THROTTLE" envDefault:"500ms"`
}

// Load reads configuration from a .env file when present, then from
// environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Sanitize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Sanitize applies guardrails and fills derived defaults.
func (c *Config) Sanitize() error {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.StatusTTL <= 0 {
		c.StatusTTL = time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".pubchem-mcp")
	}
	if c.CacheDB == "" {
		c.CacheDB = filepath.Join(c.DataDir, "cache.db")
	}
	return nil
}
