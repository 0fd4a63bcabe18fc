package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the poet configuration file (~/.config/poet/config.yaml).
// Scalar sampling fields are pointers so "not set" differs from zero.
type Config struct {
	GenresConfig string `yaml:"genres_config"`

	// Sampling defaults
	Temperature *float64 `yaml:"temperature"`
	Seed        *int64   `yaml:"seed"`
	Strategy    string   `yaml:"strategy"`
	SafetySteps *int64   `yaml:"safety_steps"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// userConfig is populated by the root command before any action runs.
var userConfig Config

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "poet", "config.yaml")
}

// applyRootConfig applies config file defaults to the root logging flags.
func applyRootConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applySamplingConfig applies config file defaults to the sampling flags
// shared by generate and serve when the corresponding flag was not set.
func applySamplingConfig(c *cli.Command, cfg Config, s *samplingSettings) {
	if cfg.GenresConfig != "" && !c.IsSet("genres-config") {
		genresConfig = cfg.GenresConfig
	}
	if cfg.Temperature != nil && !c.IsSet("temperature") {
		s.temperature = *cfg.Temperature
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		s.seed = *cfg.Seed
	}
	if cfg.Strategy != "" && !c.IsSet("strategy") {
		s.strategy = cfg.Strategy
	}
	if cfg.SafetySteps != nil && !c.IsSet("safety-steps") {
		s.safetySteps = *cfg.SafetySteps
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config and no error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
