package config

import "time"

// RetentionConfig controls data retention and cleanup behavior.
type RetentionConfig struct {
	// MaxVersionsPerStudent caps the number of active ArticleVersion rows
	// kept per (tracked student, article) pair; the oldest is soft-deleted
	// when a new version would
	// exceed the cap (spec §4.5.3, MAX_VERSIONS).
	MaxVersionsPerStudent int `yaml:"max_versions_per_student"`

	// CommentRetentionDays is how many days to keep posted/failed AIComment
	// rows before soft-deleting them.
	CommentRetentionDays int `yaml:"comment_retention_days"`

	// ProcessEventTTL is the maximum age of process_events audit rows before
	// deletion. The cleanup loop deletes every row older than this,
	// whichever process it belongs to.
	ProcessEventTTL time.Duration `yaml:"process_event_ttl"`

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		MaxVersionsPerStudent: 20,
		CommentRetentionDays:  365,
		ProcessEventTTL:       30 * 24 * time.Hour,
		CleanupInterval:       12 * time.Hour,
	}
}
