package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tobyv/a11yrelay/internal/flags"
)

// Config is the optional YAML configuration for the run and serve
// commands. Command flags override file values.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	PeriodMs int    `yaml:"period_ms"`
	Enabled  bool   `yaml:"enabled"`
}

// loadConfig reads a YAML config file. An empty path returns a zero
// config without error.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig seeds the flag store from a config file.
func applyConfig(cfg Config, store *flags.Store) {
	if cfg.Host != "" || cfg.Port != 0 {
		store.SetEndpoint(cfg.Host, cfg.Port)
	}
	if cfg.PeriodMs > 0 {
		store.SetCapturePeriod(time.Duration(cfg.PeriodMs) * time.Millisecond)
	}
	store.SetCaptureEnabled(cfg.Enabled)
}
