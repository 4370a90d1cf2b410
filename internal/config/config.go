// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and the environment.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"fmt"
	"time"
)

// Default limits.
const (
	defaultMaxPartBytes     = 50 * 1024 * 1024
	defaultAugmentTimeoutMS = 30_000
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// MaxPartBytes caps each multipart part (video, frame).
	MaxPartBytes int64 `koanf:"max_part_bytes"`

	// OpenAIAPIKey gates remote augmentation. Empty means augmentation is off.
	OpenAIAPIKey string `koanf:"openai_api_key"`
	// OpenAIModel is the multimodal chat model used for technique feedback.
	OpenAIModel string `koanf:"openai_model"`
	// OpenAIBaseURL points at an OpenAI-compatible API root.
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// AugmentTimeoutMS bounds a single remote completion call.
	AugmentTimeoutMS int `koanf:"augment_timeout_ms"`
	// AugmentTemperature keeps feedback literal and consistent.
	AugmentTemperature float64 `koanf:"augment_temperature"`
	// AugmentMaxTokens caps generated length.
	AugmentMaxTokens int `koanf:"augment_max_tokens"`
	// AugmentWorkers bounds concurrent remote calls.
	AugmentWorkers int `koanf:"augment_workers"`
	// AugmentQueueSize bounds augmentation jobs waiting for a worker.
	AugmentQueueSize int `koanf:"augment_queue_size"`
	// AugmentRatePerSec and AugmentBurst shape outbound call rate.
	AugmentRatePerSec float64 `koanf:"augment_rate_per_sec"`
	AugmentBurst      int     `koanf:"augment_burst"`

	// LeadsFile optionally replaces the built-in lead-record table (YAML).
	LeadsFile string `koanf:"leads_file"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		MaxPartBytes:       defaultMaxPartBytes,
		OpenAIModel:        "gpt-4o-mini",
		OpenAIBaseURL:      "https://api.openai.com/v1",
		AugmentTimeoutMS:   defaultAugmentTimeoutMS,
		AugmentTemperature: 0.4,
		AugmentMaxTokens:   250,
		AugmentWorkers:     4,
		AugmentQueueSize:   64,
		AugmentRatePerSec:  2,
		AugmentBurst:       4,
	}
}

// AugmentTimeout returns AugmentTimeoutMS as a duration.
func (c *Config) AugmentTimeout() time.Duration {
	return time.Duration(c.AugmentTimeoutMS) * time.Millisecond
}

// AugmentationEnabled reports whether a remote-service credential is present.
func (c *Config) AugmentationEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Validate checks invariants the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxPartBytes <= 0:
		return fmt.Errorf("%w: max_part_bytes must be positive", ErrInvalidConfig)
	case c.AugmentTimeoutMS <= 0:
		return fmt.Errorf("%w: augment_timeout_ms must be positive", ErrInvalidConfig)
	case c.AugmentWorkers <= 0:
		return fmt.Errorf("%w: augment_workers must be positive", ErrInvalidConfig)
	case c.AugmentQueueSize <= 0:
		return fmt.Errorf("%w: augment_queue_size must be positive", ErrInvalidConfig)
	case c.AugmentRatePerSec < 0 || c.AugmentBurst < 0:
		return fmt.Errorf("%w: augment rate limits must not be negative", ErrInvalidConfig)
	case c.AugmentTemperature < 0 || c.AugmentTemperature > 2:
		return fmt.Errorf("%w: augment_temperature must be within [0,2]", ErrInvalidConfig)
	}
	return nil
}
