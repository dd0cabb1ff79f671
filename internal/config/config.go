// Package config loads the TOML configuration file and applies
// defaults for anything the file leaves out.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Storage StorageConfig `toml:"storage"`
	OpenAI  OpenAIConfig  `toml:"openai"`
	Scanner ScannerConfig `toml:"scanner"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
}

// OpenAIConfig holds the vision extraction settings. The API key can
// come from the file or the OPENAI_API_KEY environment variable; the
// environment wins.
type OpenAIConfig struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxTokens      int    `toml:"max_tokens"`
}

// ScannerConfig holds the logbook rule thresholds and pipeline sizing
type ScannerConfig struct {
	MaxSessionHours       int    `toml:"max_session_hours"`
	MinSessionMinutes     int    `toml:"min_session_minutes"`
	MaxDailyHours         int    `toml:"max_daily_hours"`
	EarliestPlausibleDate string `toml:"earliest_plausible_date"`
	MaxImageMB            int    `toml:"max_image_mb"`
	Workers               int    `toml:"workers"`
	QueueSize             int    `toml:"queue_size"`
	JobTTLMinutes         int    `toml:"job_ttl_minutes"`
}

// Default returns the configuration used when the file omits a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			SQLitePath: "lplate.db",
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o",
			TimeoutSeconds: 120,
			MaxTokens:      4096,
		},
		Scanner: ScannerConfig{
			MaxSessionHours:       2,
			MinSessionMinutes:     5,
			MaxDailyHours:         8,
			EarliestPlausibleDate: "2010-01-01",
			MaxImageMB:            10,
			Workers:               2,
			QueueSize:             32,
			JobTTLMinutes:         60,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file
// is an error; a missing key is not.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path must not be empty")
	}
	if c.Scanner.MinSessionMinutes <= 0 || c.Scanner.MaxSessionHours <= 0 || c.Scanner.MaxDailyHours <= 0 {
		return fmt.Errorf("scanner rule thresholds must be positive")
	}
	return nil
}

// Redacted returns a copy safe to expose over the API, with the API
// key masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.OpenAI.APIKey != "" {
		out.OpenAI.APIKey = "***"
	}
	return out
}
