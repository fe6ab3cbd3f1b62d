// Package config loads arcalts settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/internal/logging"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoArchive   = errors.New("archive path is required")
	ErrBadMaxAlts  = errors.New("max_alts must be between 1 and 99")
	ErrBadLogLevel = errors.New("unknown log level")
)

// Config is the full arcalts configuration.
type Config struct {
	Archive    string         `yaml:"archive"`
	Mountpoint string         `yaml:"mountpoint"`
	StageDB    string         `yaml:"stage_db"`
	MaxAlts    int            `yaml:"max_alts"`
	Online     bool           `yaml:"online"`
	Seed       uint64         `yaml:"seed"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Log        logging.Config `yaml:"log"`
}

// MetricsConfig controls the prometheus endpoint served while mounted.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MaxAlts: alts.DefaultMaxAlts,
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9464",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults and applies ARCALTS_* environment
// variables. A missing file is not an error. The result is not validated;
// commands call Validate once flags have been applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	fromEnv(&cfg)
	return cfg, nil
}

func fromEnv(cfg *Config) {
	if v := os.Getenv("ARCALTS_ARCHIVE"); v != "" {
		cfg.Archive = v
	}
	if v := os.Getenv("ARCALTS_STAGE_DB"); v != "" {
		cfg.StageDB = v
	}
	if v := os.Getenv("ARCALTS_MAX_ALTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxAlts = n
		}
	}
	if v := os.Getenv("ARCALTS_ONLINE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Online = b
		}
	}
	if v := os.Getenv("ARCALTS_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v := os.Getenv("ARCALTS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ARCALTS_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if c.Archive == "" {
		return ErrNoArchive
	}
	if c.MaxAlts < 1 || c.MaxAlts > alts.DefaultMaxAlts {
		return fmt.Errorf("%w: %d", ErrBadMaxAlts, c.MaxAlts)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrBadLogLevel, c.Log.Level)
	}
	return nil
}
