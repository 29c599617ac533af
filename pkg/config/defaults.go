package config

import "time"

// Defaults contains system-wide default values applied when a
// MonitoringProcess or PromptTemplate leaves a knob unset.
type Defaults struct {
	// AICommentPrefix is prepended idempotently to every generated comment
	// that doesn't already start with it (spec §4.5.4).
	AICommentPrefix string `yaml:"ai_comment_prefix,omitempty"`

	// MinCommentLength and MaxCommentLength bound generated comment length,
	// excluding the disclosure prefix.
	MinCommentLength int `yaml:"min_comment_length,omitempty" validate:"omitempty,min=1"`
	MaxCommentLength int `yaml:"max_comment_length,omitempty" validate:"omitempty,min=1"`

	// MaxDurationMinutes is used when a MonitoringProcess does not specify one.
	MaxDurationMinutes int `yaml:"max_duration_minutes,omitempty" validate:"omitempty,min=1"`

	// MaxConcurrentPerUser bounds the number of simultaneously running
	// MonitoringProcess rows per user (spec §4.5.1). StartProcess enforces
	// the built-in value from DefaultDefaults; a configured value is
	// validated but not read by the orchestrator.
	MaxConcurrentPerUser int `yaml:"max_concurrent_per_user,omitempty" validate:"omitempty,min=1"`

	// MaxRetries is a pre-posting-stage retry budget (spec §9 open question).
	// It is validated but no stage reads it: a comment marked failed stays
	// failed, and posting is never retried.
	MaxRetries int `yaml:"max_retries,omitempty" validate:"omitempty,min=0"`

	// RetryBackoffBase is validated but not read; no stage applies a retry
	// backoff.
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base,omitempty"`

	// DiscoveryPageLimit is the maximum number of articles (after
	// SearchFilter) Discovery takes per login; it also bounds the number of
	// ListArticles pages requested per login.
	DiscoveryPageLimit int `yaml:"discovery_page_limit,omitempty" validate:"omitempty,min=1"`

	// DiscoveryParallelism is validated but not read: Discovery processes
	// logins one at a time whatever its value.
	DiscoveryParallelism int `yaml:"discovery_parallelism,omitempty" validate:"omitempty,min=1"`
}

// DefaultDefaults returns the built-in system-wide defaults.
func DefaultDefaults() *Defaults {
	return &Defaults{
		AICommentPrefix:      "[Dieser Kommentar stammt von einem KI-ChatBot.]",
		MinCommentLength:     50,
		MaxCommentLength:     500,
		MaxDurationMinutes:   60,
		MaxConcurrentPerUser: 10,
		MaxRetries:           3,
		RetryBackoffBase:     2 * time.Second,
		DiscoveryPageLimit:   20,
		DiscoveryParallelism: 1,
	}
}
