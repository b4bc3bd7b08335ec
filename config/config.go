// Package config loads the demo application's YAML configuration: which
// scheduling algorithm to run, how the demo task pipeline is shaped, and
// where to serve metrics.
package config

import (
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// TaskSpec describes one demo task.
type TaskSpec struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	PeriodMS int    `yaml:"period_ms"` // 0 = event-driven
	Profile  bool   `yaml:"profile"`
	Trace    bool   `yaml:"trace"`
}

// Config mirrors config.yaml.
type Config struct {
	// Algorithm is "priority" or "round_robin".
	Algorithm string `yaml:"algorithm"`

	// DurationS bounds the demo run in seconds; 0 runs until interrupted.
	DurationS int `yaml:"duration_s"`

	// QueueSize is the capacity of the demo data queue.
	QueueSize int `yaml:"queue_size"`

	// Metrics exposure.
	MetricsAddr       string `yaml:"metrics_addr"`
	MetricsIntervalMS int    `yaml:"metrics_interval_ms"`

	// Tasks overrides the built-in demo pipeline task parameters.
	Tasks []TaskSpec `yaml:"tasks"`
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		Algorithm:         "priority",
		DurationS:         10,
		QueueSize:         16,
		MetricsAddr:       "",
		MetricsIntervalMS: 1000,
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps
	if cfg.Algorithm != "priority" && cfg.Algorithm != "round_robin" {
		cfg.Algorithm = "priority"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.MetricsIntervalMS <= 0 {
		cfg.MetricsIntervalMS = 1000
	}
	if cfg.DurationS < 0 {
		cfg.DurationS = 0
	}

	return cfg
}

// Duration returns the configured run bound, or zero for unbounded.
func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationS) * time.Second
}

// MetricsInterval returns the snapshot polling interval.
func (c Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalMS) * time.Millisecond
}
