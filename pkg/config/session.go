package config

import "time"

// SessionConfig controls the platform session manager (C3).
type SessionConfig struct {
	// TTL is how long an authenticated platform session is considered
	// valid before get_or_create forces re-authentication.
	TTL time.Duration `yaml:"ttl,omitempty"`

	// RefreshThreshold re-authenticates proactively when remaining
	// validity drops below this duration, instead of waiting for expiry.
	RefreshThreshold time.Duration `yaml:"refresh_threshold,omitempty"`

	// SweepInterval is how often the orphan-session sweep runs, releasing
	// sessions whose owning login no longer exists or is disabled.
	SweepInterval time.Duration `yaml:"sweep_interval,omitempty"`
}

// DefaultSessionConfig returns the built-in session manager defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		TTL:              24 * time.Hour,
		RefreshThreshold: 1 * time.Hour,
		SweepInterval:    1 * time.Hour,
	}
}
