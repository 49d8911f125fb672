// Package config loads linsync configuration from an optional .env file,
// an optional linsync.yaml, and the process environment. Environment
// variables win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when
// LINSYNC_CONFIG is not set.
const DefaultConfigFile = "linsync.yaml"

// Config holds everything the sync engine and its surfaces need.
type Config struct {
	APIKey   string
	Endpoint string
	Pacing   time.Duration
	PageSize int
	RESTPort string
}

type fileConfig struct {
	Endpoint string `yaml:"endpoint"`
	PacingMS int    `yaml:"pacing_ms"`
	PageSize int    `yaml:"page_size"`
	RESTPort string `yaml:"rest_port"`
}

// Load reads configuration. The API key is required; its absence is a
// fatal configuration error surfaced before any network activity.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Endpoint: "",
		Pacing:   100 * time.Millisecond,
		PageSize: 250,
		RESTPort: "8080",
	}

	if err := applyFile(cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("LINEAR_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("LINSYNC_PACING"); v != "" {
		pacing, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LINSYNC_PACING %q: %w", v, err)
		}
		cfg.Pacing = pacing
	}
	if v := os.Getenv("LINSYNC_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid LINSYNC_PAGE_SIZE %q", v)
		}
		cfg.PageSize = size
	}
	if v := os.Getenv("REST_PORT"); v != "" {
		cfg.RESTPort = v
	}

	cfg.APIKey = os.Getenv("LINEAR_API_KEY")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LINEAR_API_KEY is not set")
	}

	return cfg, nil
}

func applyFile(cfg *Config) error {
	path := os.Getenv("LINSYNC_CONFIG")
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("LINSYNC_CONFIG") == "" {
			return nil
		}
		if os.IsNotExist(err) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.Endpoint != "" {
		cfg.Endpoint = fc.Endpoint
	}
	if fc.PacingMS > 0 {
		cfg.Pacing = time.Duration(fc.PacingMS) * time.Millisecond
	}
	if fc.PageSize > 0 {
		cfg.PageSize = fc.PageSize
	}
	if fc.RESTPort != "" {
		cfg.RESTPort = fc.RESTPort
	}

	return nil
}
