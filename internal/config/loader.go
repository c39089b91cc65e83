// Package config loads and validates pipewright configuration from the
// .pipewright directory under a base path, falling back to defaults when no
// config file exists.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultStateDir       = ".pipewright"
	DefaultMaxMemories    = 50
	DefaultRecentMemories = 5
	DefaultRetryCeiling   = 3
	DefaultMaxRetries     = 3
	DefaultPollIntervalMS = 200
)

// DefaultLimits returns limits with sensible default values.
func DefaultLimits() Limits {
	return Limits{
		MaxMemories:    DefaultMaxMemories,
		RecentMemories: DefaultRecentMemories,
		RetryCeiling:   DefaultRetryCeiling,
		MaxRetries:     DefaultMaxRetries,
		PollIntervalMS: DefaultPollIntervalMS,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		StateDir: DefaultStateDir,
		Limits:   DefaultLimits(),
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// LoadConfig reads and parses <basePath>/.pipewright/config.yaml. If the
// file doesn't exist, it returns the default config. Missing fields keep
// their defaults.
func LoadConfig(basePath string) (*Config, error) {
	configPath := filepath.Join(basePath, ".pipewright", "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.StateDir == "" {
		return ValidationError{Field: "state_dir", Message: "must not be empty"}
	}
	if cfg.Limits.MaxMemories <= 0 {
		return ValidationError{Field: "limits.max_memories", Message: "must be positive"}
	}
	if cfg.Limits.RecentMemories <= 0 {
		return ValidationError{Field: "limits.recent_memories", Message: "must be positive"}
	}
	if cfg.Limits.RetryCeiling <= 0 {
		return ValidationError{Field: "limits.retry_ceiling", Message: "must be positive"}
	}
	if cfg.Limits.MaxRetries < 0 {
		return ValidationError{Field: "limits.max_retries", Message: "must not be negative"}
	}
	if cfg.Limits.PollIntervalMS <= 0 {
		return ValidationError{Field: "limits.poll_interval_ms", Message: "must be positive"}
	}
	return nil
}
