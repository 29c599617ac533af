package config

import "time"

// RateLimitConfig controls the combined token-bucket and sliding-window
// limiter (C6) guarding outbound platform and LLM provider calls.
type RateLimitConfig struct {
	// BucketCapacity is the token bucket's burst capacity per identifier.
	BucketCapacity int `yaml:"bucket_capacity"`

	// RefillRate is how many tokens are added to the bucket per RefillInterval.
	RefillRate int `yaml:"refill_rate"`

	// RefillInterval is the bucket refill tick period.
	RefillInterval time.Duration `yaml:"refill_interval"`

	// WindowSize is the sliding window duration used for the secondary
	// rate check (requests per window, independent of bucket state).
	WindowSize time.Duration `yaml:"window_size"`

	// WindowLimit is the maximum requests allowed within WindowSize.
	WindowLimit int `yaml:"window_limit"`

	// PerDomainDelay is the minimum delay between two requests to the same
	// scraped domain, enforced by wait_if_needed.
	PerDomainDelay time.Duration `yaml:"per_domain_delay"`

	// IdleEvictionAge is how long a per-identifier bucket can go unused
	// before the periodic sweep evicts it.
	IdleEvictionAge time.Duration `yaml:"idle_eviction_age"`

	// EvictionInterval is how often the idle-bucket sweep runs.
	EvictionInterval time.Duration `yaml:"eviction_interval"`
}

// DefaultRateLimitConfig returns the built-in rate limiter defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		BucketCapacity:   10,
		RefillRate:       1,
		RefillInterval:   time.Second,
		WindowSize:       time.Minute,
		WindowLimit:      30,
		PerDomainDelay:   1 * time.Second,
		IdleEvictionAge:  1 * time.Hour,
		EvictionInterval: 15 * time.Minute,
	}
}
