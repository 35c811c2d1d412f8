// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"math"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "TECHMATCH_"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log output to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RequiredWeight and OptionalWeight split the match score; they must sum to 1.
	RequiredWeight float64 `koanf:"required_weight"`
	OptionalWeight float64 `koanf:"optional_weight"`

	// NotificationThreshold is the minimum score that emits a match event.
	NotificationThreshold float64 `koanf:"notification_threshold"`

	// RankingTimeoutMS is the per-call ranking deadline.
	RankingTimeoutMS int `koanf:"ranking_timeout_ms"`

	// ScoringConcurrency bounds concurrent candidate lookups in one call.
	ScoringConcurrency int `koanf:"scoring_concurrency"`

	// MaxCandidates caps the candidate list accepted by the HTTP layer.
	MaxCandidates int `koanf:"max_candidates"`

	// NotificationQueueSize bounds the in-memory match event queue.
	NotificationQueueSize int `koanf:"notification_queue_size"`

	// DispatcherCount sets the number of notification workers.
	DispatcherCount int `koanf:"dispatcher_count"`

	// DispatchRetryAttempts and DispatchRetryDelayMS drive delivery retries.
	DispatchRetryAttempts int `koanf:"dispatch_retry_attempts"`
	DispatchRetryDelayMS  int `koanf:"dispatch_retry_delay_ms"`

	// NotificationDedupeSize bounds the repeat-suppression memory.
	NotificationDedupeSize int `koanf:"notification_dedupe_size"`

	// DatabasePath selects the SQLite file; empty keeps everything in memory.
	DatabasePath string `koanf:"database_path"`

	// SeedFile optionally points at a YAML fixture loaded at startup.
	SeedFile string `koanf:"seed_file"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		RequiredWeight:         0.8,
		OptionalWeight:         0.2,
		NotificationThreshold:  0.5,
		RankingTimeoutMS:       2000,
		ScoringConcurrency:     16,
		MaxCandidates:          500,
		NotificationQueueSize:  10_000,
		DispatcherCount:        4,
		DispatchRetryAttempts:  3,
		DispatchRetryDelayMS:   100,
		NotificationDedupeSize: 50_000,
	}
}

// RankingTimeout returns RankingTimeoutMS as a duration.
func (c *Config) RankingTimeout() time.Duration {
	return time.Duration(c.RankingTimeoutMS) * time.Millisecond
}

// DispatchRetryDelay returns DispatchRetryDelayMS as a duration.
func (c *Config) DispatchRetryDelay() time.Duration {
	return time.Duration(c.DispatchRetryDelayMS) * time.Millisecond
}

const weightTolerance = 1e-9

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RequiredWeight < 0 || c.OptionalWeight < 0:
		return fmt.Errorf("%w: weights must not be negative", ErrInvalidConfig)
	case math.Abs(c.RequiredWeight+c.OptionalWeight-1) > weightTolerance:
		return fmt.Errorf("%w: required_weight + optional_weight must equal 1 (got %v)", ErrInvalidConfig, c.RequiredWeight+c.OptionalWeight)
	case c.NotificationThreshold < 0 || c.NotificationThreshold > 1:
		return fmt.Errorf("%w: notification_threshold must be within [0,1]", ErrInvalidConfig)
	case c.RankingTimeoutMS <= 0:
		return fmt.Errorf("%w: ranking_timeout_ms must be positive", ErrInvalidConfig)
	case c.ScoringConcurrency <= 0:
		return fmt.Errorf("%w: scoring_concurrency must be positive", ErrInvalidConfig)
	case c.MaxCandidates <= 0:
		return fmt.Errorf("%w: max_candidates must be positive", ErrInvalidConfig)
	case c.NotificationQueueSize <= 0:
		return fmt.Errorf("%w: notification_queue_size must be positive", ErrInvalidConfig)
	case c.DispatcherCount <= 0:
		return fmt.Errorf("%w: dispatcher_count must be positive", ErrInvalidConfig)
	case c.DispatchRetryAttempts <= 0:
		return fmt.Errorf("%w: dispatch_retry_attempts must be positive", ErrInvalidConfig)
	case c.DispatchRetryDelayMS < 0:
		return fmt.Errorf("%w: dispatch_retry_delay_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
