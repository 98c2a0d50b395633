// Package config loads planweave configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	StorePath       string       `yaml:"store_path"`
	DefaultStrategy string       `yaml:"default_strategy"`
	BlockMinutes    int          `yaml:"block_minutes"`
	Oracle          OracleConfig `yaml:"oracle"`
}

type OracleConfig struct {
	URL            string `yaml:"url"`
	AuthToken      string `yaml:"auth_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the oracle request timeout as a duration.
func (o OracleConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func Default() Config {
	return Config{
		StorePath:       DefaultStorePath(),
		DefaultStrategy: "simple_greedy",
		BlockMinutes:    90,
		Oracle: OracleConfig{
			TimeoutSeconds: 10,
		},
	}
}

// DefaultStorePath is ~/.config/planweave/planweave.db, falling back to the
// current directory when the home directory cannot be resolved.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "planweave.db"
	}
	return filepath.Join(home, ".config", "planweave", "planweave.db")
}

// DefaultConfigPath is ~/.config/planweave/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "planweave", "config.yaml")
}

// Load reads the YAML file at path (missing file is fine, defaults apply)
// and then applies PLANWEAVE_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = "simple_greedy"
	}
	if cfg.BlockMinutes <= 0 {
		cfg.BlockMinutes = 90
	}
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultStorePath()
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PLANWEAVE_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("PLANWEAVE_STRATEGY"); v != "" {
		cfg.DefaultStrategy = v
	}
	if v := os.Getenv("PLANWEAVE_BLOCK_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			cfg.BlockMinutes = minutes
		}
	}
	if v := os.Getenv("PLANWEAVE_ORACLE_URL"); v != "" {
		cfg.Oracle.URL = v
	}
	if v := os.Getenv("PLANWEAVE_ORACLE_TOKEN"); v != "" {
		cfg.Oracle.AuthToken = v
	}
	if v := os.Getenv("PLANWEAVE_ORACLE_TIMEOUT_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			cfg.Oracle.TimeoutSeconds = seconds
		}
	}
}

// Save writes the config back out as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
