// Package config loads client configuration.
// Source priority (highest to lowest):
// 1. Environment variables (LONEWORKER_BASE_URL, LONEWORKER_POLL_INTERVAL,
//    LONEWORKER_REQUEST_TIMEOUT)
// 2. Config file path passed via --config
// 3. ~/.config/loneworker/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fieldsafe/loneworker/gateway"
)

type Config struct {
	BaseURL               string `yaml:"base_url"`
	PollIntervalSeconds   int    `yaml:"poll_interval_seconds"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// Default points at the hosted service with a 30-second refresh.
func Default() Config {
	return Config{
		BaseURL:               gateway.DefaultBaseURL,
		PollIntervalSeconds:   30,
		RequestTimeoutSeconds: 10,
	}
}

// Load reads the config file if one exists and applies env overrides. A
// missing default-path file is not an error; an explicit --config path that
// cannot be read is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".config", "loneworker", "config.yaml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit {
				return Config{}, fmt.Errorf("reading config %s: %v", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %v", path, err)
		}
	}

	if v := os.Getenv("LONEWORKER_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LONEWORKER_POLL_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.PollIntervalSeconds = secs
		}
	}
	if v := os.Getenv("LONEWORKER_REQUEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeoutSeconds = secs
		}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = gateway.DefaultBaseURL
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 30
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = 10
	}
	return cfg, nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
