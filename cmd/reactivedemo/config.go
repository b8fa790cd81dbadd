package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config describes the reactivedemo YAML configuration.
type config struct {
	Queue struct {
		Rate            string `yaml:"rate"`
		Operations      int    `yaml:"operations"`
		FailEvery       int    `yaml:"fail_every"`
		WorkDuration    string `yaml:"work_duration"`
		MetricsInterval string `yaml:"metrics_interval"`
	} `yaml:"queue"`
	Matcher struct {
		Left  []string `yaml:"left"`
		Right []string `yaml:"right"`
	} `yaml:"matcher"`
}

// settings is the validated form of config.
type settings struct {
	rate            time.Duration
	operations      int
	failEvery       int
	work            time.Duration
	metricsInterval time.Duration
	left, right     []string
}

// loadConfig reads and validates the configuration file.
func loadConfig(path string) (settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return settings{}, err
	}
	return parseConfig(data)
}

// parseConfig decodes YAML and applies defaults.
func parseConfig(data []byte) (settings, error) {
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return settings{}, err
	}

	var s settings
	var err error
	if s.rate, err = parseDuration("queue.rate", cfg.Queue.Rate, 500*time.Millisecond); err != nil {
		return s, err
	}
	if s.work, err = parseDuration("queue.work_duration", cfg.Queue.WorkDuration, 0); err != nil {
		return s, err
	}
	if s.metricsInterval, err = parseDuration("queue.metrics_interval", cfg.Queue.MetricsInterval, 0); err != nil {
		return s, err
	}

	s.operations = cfg.Queue.Operations
	if s.operations == 0 {
		s.operations = 5
	}
	if s.operations < 0 {
		return s, fmt.Errorf("queue.operations must not be negative")
	}
	if cfg.Queue.FailEvery < 0 {
		return s, fmt.Errorf("queue.fail_every must not be negative")
	}
	s.failEvery = cfg.Queue.FailEvery

	s.left = cfg.Matcher.Left
	s.right = cfg.Matcher.Right
	return s, nil
}

// parseDuration converts a config duration string, using def when empty.
func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
