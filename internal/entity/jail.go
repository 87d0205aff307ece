package entity

import (
	"fmt"
	"time"
)

// Default jail parameters, applied by Normalize when a field is unset.
const (
	DefaultMaxRetry = 5
	DefaultFindTime = 600 * time.Second
	DefaultBanTime  = 600 * time.Second
)

// JailConfig is the immutable configuration of one jail. It is produced by
// an external configuration loader (or the YAML definition loader) and
// validated once at jail construction.
type JailConfig struct {
	Name     string        `json:"name"`
	MaxRetry int           `json:"maxretry"` // failures within FindTime before ban
	FindTime time.Duration `json:"findtime"` // sliding window width
	BanTime  time.Duration `json:"bantime"`  // ban duration

	// BantimeFactor is an optional escalation multiplier: when > 1, the
	// effective ban duration for the n-th ban of an address is
	// BanTime * BantimeFactor^(n-1). Zero disables escalation.
	BantimeFactor float64 `json:"bantime_factor,omitempty"`

	// Patterns are failure patterns tried in order; first match wins.
	Patterns []string `json:"patterns"`
	// IgnorePatterns short-circuit processing: a line matching any of them
	// is never counted as a failure.
	IgnorePatterns []string `json:"ignore_patterns,omitempty"`
}

// Normalize fills unset numeric fields with the package defaults.
// It does not touch explicitly negative values; those are Validate's job.
func (c JailConfig) Normalize() JailConfig {
	if c.MaxRetry == 0 {
		c.MaxRetry = DefaultMaxRetry
	}
	if c.FindTime == 0 {
		c.FindTime = DefaultFindTime
	}
	if c.BanTime == 0 {
		c.BanTime = DefaultBanTime
	}
	return c
}

// Validate checks the configuration and returns a *ConfigurationError on
// the first violation. A jail must not be constructed from an invalid
// config.
func (c JailConfig) Validate() error {
	if c.MaxRetry <= 0 {
		return &ConfigurationError{Field: "maxretry", Reason: fmt.Sprintf("must be positive, got %d", c.MaxRetry)}
	}
	if c.FindTime < 0 {
		return &ConfigurationError{Field: "findtime", Reason: fmt.Sprintf("must not be negative, got %v", c.FindTime)}
	}
	if c.BanTime < 0 {
		return &ConfigurationError{Field: "bantime", Reason: fmt.Sprintf("must not be negative, got %v", c.BanTime)}
	}
	if c.BantimeFactor < 0 {
		return &ConfigurationError{Field: "bantime_factor", Reason: fmt.Sprintf("must not be negative, got %v", c.BantimeFactor)}
	}
	return nil
}

// ConfigurationError reports an invalid JailConfig field at construction
// time. Construction problems are fatal to the call: the caller must not
// proceed with a half-configured jail.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("jail config: %s %s", e.Field, e.Reason)
}

// JailStatus is a point-in-time snapshot of one jail, safe to hand outward.
type JailStatus struct {
	Name      string     `json:"name"`
	MaxRetry  int        `json:"maxretry"`
	FindTime  string     `json:"findtime"`
	BanTime   string     `json:"bantime"`
	Tracked   int        `json:"tracked_addresses"`
	Banned    []BanEntry `json:"banned"`
	Processed uint64     `json:"lines_processed"`
	Matched   uint64     `json:"lines_matched"`
}
