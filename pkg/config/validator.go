package config

import (
	"fmt"
	"net/url"
	"os"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first
// error). Order matches component dependency: the vault gates credential
// decryption for every later check, the rate limiter and scraper gate the
// session manager; the LLM endpoints, orchestrator, defaults and retention
// settings are then checked in that order.
func (v *Validator) ValidateAll() error {
	if err := v.validateVault(); err != nil {
		return fmt.Errorf("vault validation failed: %w", err)
	}

	if err := v.validateRateLimit(); err != nil {
		return fmt.Errorf("rate limit validation failed: %w", err)
	}

	if err := v.validateScraper(); err != nil {
		return fmt.Errorf("scraper validation failed: %w", err)
	}

	if err := v.validateSession(); err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}

	if err := v.validateLLMEndpoints(); err != nil {
		return fmt.Errorf("LLM endpoint validation failed: %w", err)
	}

	if err := v.validateOrchestrator(); err != nil {
		return fmt.Errorf("orchestrator validation failed: %w", err)
	}

	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}

	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateVault() error {
	vc := v.cfg.Vault
	if vc == nil {
		return fmt.Errorf("vault configuration is nil")
	}

	if vc.KeyEnvVar == "" && vc.KeyFile == "" {
		return NewValidationError("vault", "", fmt.Errorf("at least one of key_env_var or key_file must be set"))
	}

	if vc.KeyEnvVar != "" {
		if value := os.Getenv(vc.KeyEnvVar); value == "" && !vc.AllowGenerate && vc.KeyFile == "" {
			return NewValidationError("vault", "key_env_var", fmt.Errorf("environment variable %s is not set and allow_generate is false", vc.KeyEnvVar))
		}
	}

	return nil
}

func (v *Validator) validateRateLimit() error {
	rl := v.cfg.RateLimit
	if rl == nil {
		return fmt.Errorf("rate limit configuration is nil")
	}

	if rl.BucketCapacity < 1 {
		return NewValidationError("rate_limit", "bucket_capacity", fmt.Errorf("must be at least 1"))
	}
	if rl.RefillRate < 1 {
		return NewValidationError("rate_limit", "refill_rate", fmt.Errorf("must be at least 1"))
	}
	if rl.RefillInterval <= 0 {
		return NewValidationError("rate_limit", "refill_interval", fmt.Errorf("must be positive"))
	}
	if rl.WindowSize <= 0 {
		return NewValidationError("rate_limit", "window_size", fmt.Errorf("must be positive"))
	}
	if rl.WindowLimit < 1 {
		return NewValidationError("rate_limit", "window_limit", fmt.Errorf("must be at least 1"))
	}
	if rl.PerDomainDelay < 0 {
		return NewValidationError("rate_limit", "per_domain_delay", fmt.Errorf("must be non-negative"))
	}
	if rl.IdleEvictionAge <= 0 {
		return NewValidationError("rate_limit", "idle_eviction_age", fmt.Errorf("must be positive"))
	}
	if rl.EvictionInterval <= 0 {
		return NewValidationError("rate_limit", "eviction_interval", fmt.Errorf("must be positive"))
	}

	return nil
}

func (v *Validator) validateScraper() error {
	sc := v.cfg.Scraper
	if sc == nil {
		return fmt.Errorf("scraper configuration is nil")
	}

	if sc.BaseURL == "" {
		return NewValidationError("scraper", "base_url", fmt.Errorf("required"))
	}
	if _, err := url.Parse(sc.BaseURL); err != nil {
		return NewValidationError("scraper", "base_url", fmt.Errorf("not a valid URL: %w", err))
	}
	if sc.RequestTimeout <= 0 {
		return NewValidationError("scraper", "request_timeout", fmt.Errorf("must be positive"))
	}
	if sc.MaxArticleBytes < 1 {
		return NewValidationError("scraper", "max_article_bytes", fmt.Errorf("must be at least 1"))
	}

	return nil
}

func (v *Validator) validateSession() error {
	sess := v.cfg.Session
	if sess == nil {
		return fmt.Errorf("session configuration is nil")
	}

	if sess.TTL <= 0 {
		return NewValidationError("session", "ttl", fmt.Errorf("must be positive"))
	}
	if sess.RefreshThreshold <= 0 {
		return NewValidationError("session", "refresh_threshold", fmt.Errorf("must be positive"))
	}
	if sess.RefreshThreshold >= sess.TTL {
		return NewValidationError("session", "refresh_threshold", fmt.Errorf("must be less than ttl, got threshold=%v ttl=%v", sess.RefreshThreshold, sess.TTL))
	}
	if sess.SweepInterval <= 0 {
		return NewValidationError("session", "sweep_interval", fmt.Errorf("must be positive"))
	}

	return nil
}

func (v *Validator) validateLLMEndpoints() error {
	for name, ep := range v.cfg.LLMEndpoints.GetAll() {
		if !ep.Type.IsValid() {
			return NewValidationError("llm_endpoint", "type", fmt.Errorf("invalid provider type for '%s': %s", name, ep.Type))
		}
		if ep.BaseURL == "" {
			return NewValidationError("llm_endpoint", "base_url", fmt.Errorf("required for provider '%s'", name))
		}
		if _, err := url.Parse(ep.BaseURL); err != nil {
			return NewValidationError("llm_endpoint", "base_url", fmt.Errorf("provider '%s' has invalid URL: %w", name, err))
		}
		if ep.CallTimeout <= 0 {
			return NewValidationError("llm_endpoint", "call_timeout", fmt.Errorf("must be positive for provider '%s'", name))
		}
		if ep.MinCallInterval < 0 {
			return NewValidationError("llm_endpoint", "min_call_interval", fmt.Errorf("must be non-negative for provider '%s'", name))
		}
	}

	return nil
}

func (v *Validator) validateOrchestrator() error {
	o := v.cfg.Orchestrator
	if o == nil {
		return fmt.Errorf("orchestrator configuration is nil")
	}

	if o.WorkerCount < 1 || o.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", o.WorkerCount)
	}
	if o.MaxConcurrentPerStage < 1 {
		return fmt.Errorf("max_concurrent_per_stage must be at least 1, got %d", o.MaxConcurrentPerStage)
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", o.PollInterval)
	}
	if o.PollIntervalJitter < 0 {
		return fmt.Errorf("poll_interval_jitter must be non-negative, got %v", o.PollIntervalJitter)
	}
	if o.PollIntervalJitter >= o.PollInterval {
		return fmt.Errorf("poll_interval_jitter must be less than poll_interval, got jitter=%v interval=%v", o.PollIntervalJitter, o.PollInterval)
	}
	if o.StageTaskTimeout <= 0 {
		return fmt.Errorf("stage_task_timeout must be positive, got %v", o.StageTaskTimeout)
	}
	if o.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", o.GracefulShutdownTimeout)
	}
	if o.OrphanDetectionInterval <= 0 {
		return fmt.Errorf("orphan_detection_interval must be positive, got %v", o.OrphanDetectionInterval)
	}
	if o.OrphanThreshold <= 0 {
		return fmt.Errorf("orphan_threshold must be positive, got %v", o.OrphanThreshold)
	}
	if o.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %v", o.HeartbeatInterval)
	}
	if o.HeartbeatInterval >= o.OrphanThreshold {
		return fmt.Errorf("heartbeat_interval must be less than orphan_threshold to prevent false orphan detection, got heartbeat=%v threshold=%v", o.HeartbeatInterval, o.OrphanThreshold)
	}
	if o.ProcessDurationCheckInterval <= 0 {
		return fmt.Errorf("process_duration_check_interval must be positive, got %v", o.ProcessDurationCheckInterval)
	}

	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return nil
	}

	if d.MinCommentLength < 1 {
		return NewValidationError("defaults", "min_comment_length", fmt.Errorf("must be at least 1"))
	}
	if d.MaxCommentLength < d.MinCommentLength {
		return NewValidationError("defaults", "max_comment_length", fmt.Errorf("must be >= min_comment_length"))
	}
	if d.MaxDurationMinutes < 1 {
		return NewValidationError("defaults", "max_duration_minutes", fmt.Errorf("must be at least 1"))
	}
	if d.MaxConcurrentPerUser < 1 {
		return NewValidationError("defaults", "max_concurrent_per_user", fmt.Errorf("must be at least 1"))
	}
	if d.MaxRetries < 0 {
		return NewValidationError("defaults", "max_retries", fmt.Errorf("must be non-negative"))
	}
	if d.RetryBackoffBase <= 0 {
		return NewValidationError("defaults", "retry_backoff_base", fmt.Errorf("must be positive"))
	}
	if d.DiscoveryPageLimit < 1 {
		return NewValidationError("defaults", "discovery_page_limit", fmt.Errorf("must be at least 1"))
	}
	if d.DiscoveryParallelism < 1 {
		return NewValidationError("defaults", "discovery_parallelism", fmt.Errorf("must be at least 1"))
	}

	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r == nil {
		return nil
	}

	if r.MaxVersionsPerStudent < 1 {
		return NewValidationError("retention", "max_versions_per_student", fmt.Errorf("must be at least 1"))
	}
	if r.CommentRetentionDays < 0 {
		return NewValidationError("retention", "comment_retention_days", fmt.Errorf("must be non-negative"))
	}
	if r.ProcessEventTTL <= 0 {
		return NewValidationError("retention", "process_event_ttl", fmt.Errorf("must be positive"))
	}
	if r.CleanupInterval <= 0 {
		return NewValidationError("retention", "cleanup_interval", fmt.Errorf("must be positive"))
	}

	return nil
}
