// Package config loads client configuration in layers: hardcoded defaults,
// then .env/environment, then an optional JSON file, then command-line flags.
// Later layers win.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ortofresco/gestionale/internal/flagx"
	"github.com/ortofresco/gestionale/internal/timex"
)

// TombstonePolicy selects what happens to tombstones whose remote delete
// failed during a sync pass.
type TombstonePolicy string

const (
	// PolicyClearAlways drops all tombstones after each drain pass.
	PolicyClearAlways TombstonePolicy = "clear-always"
	// PolicyRetryFailed keeps failed tombstones queued for the next pass.
	PolicyRetryFailed TombstonePolicy = "retry-failed"
)

// Config holds every client setting.
type Config struct {
	// APIBaseURL is the management server root, e.g. "https://crm.example.com".
	APIBaseURL string

	// DatabasePath locates the local mirror sqlite file.
	DatabasePath string

	// BearerToken authenticates every API request.
	BearerToken string

	// OnlineCheckInterval is the ping watcher period.
	OnlineCheckInterval time.Duration

	// TombstonePolicy selects the drain behavior for failed remote deletes.
	TombstonePolicy TombstonePolicy
}

type jsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	DatabasePath        string         `json:"database_path"`
	BearerToken         string         `json:"bearer_token"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	TombstonePolicy     string         `json:"tombstone_policy"`
}

// LoadDefaults returns the built-in configuration.
func LoadDefaults() *Config {
	return &Config{
		APIBaseURL:          "http://localhost:8080",
		DatabasePath:        "gestionale.db",
		OnlineCheckInterval: 30 * time.Second,
		TombstonePolicy:     PolicyRetryFailed,
	}
}

// Load builds the effective configuration from all layers.
func Load() (*Config, error) {
	cfg := LoadDefaults()

	if err := cfg.parseEnv(); err != nil {
		return nil, err
	}
	if path := flagx.JsonConfigFlags(); path != "" {
		if err := cfg.parseJSON(path); err != nil {
			return nil, err
		}
	}
	cfg.parseFlags(os.Args[1:])

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseEnv loads a .env file when present, then reads the environment.
func (c *Config) parseEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("API_BEARER_TOKEN"); v != "" {
		c.BearerToken = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	return nil
}

func (c *Config) parseJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		c.APIBaseURL = jc.APIBaseURL
	}
	if jc.DatabasePath != "" {
		c.DatabasePath = jc.DatabasePath
	}
	if jc.BearerToken != "" {
		c.BearerToken = jc.BearerToken
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		c.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.TombstonePolicy != "" {
		c.TombstonePolicy = TombstonePolicy(jc.TombstonePolicy)
	}
	return nil
}

func (c *Config) parseFlags(args []string) {
	allowed := []string{"-a", "-d", "-t", "-i"}
	filtered := flagx.FilterArgs(args, allowed)

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&c.APIBaseURL, "a", c.APIBaseURL, "API base URL")
	fs.StringVar(&c.DatabasePath, "d", c.DatabasePath, "Local database path")
	fs.StringVar(&c.BearerToken, "t", c.BearerToken, "API bearer token")
	fs.DurationVar(&c.OnlineCheckInterval, "i", c.OnlineCheckInterval, "Online check interval")
	_ = fs.Parse(filtered)
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	switch c.TombstonePolicy {
	case PolicyClearAlways, PolicyRetryFailed:
	default:
		return fmt.Errorf("unknown tombstone policy %q", c.TombstonePolicy)
	}
	return nil
}
