package config

import "time"

// OrchestratorConfig contains worker pool configuration for the monitoring
// orchestrator (C5). The pipeline runs four named stage queues — discovery,
// preparation, generation, posting — each with its own worker set, polling
// a shared stage_tasks table with claim semantics.
type OrchestratorConfig struct {
	// WorkerCount is the number of worker goroutines per stage, per replica/pod.
	// Each worker independently polls and claims stage tasks.
	WorkerCount int `yaml:"worker_count"`

	// MaxConcurrentPerStage is the global limit of concurrent in-progress
	// tasks for a single stage across ALL replicas/pods. Enforced by a
	// database COUNT(*) check before claiming.
	MaxConcurrentPerStage int `yaml:"max_concurrent_per_stage"`

	// PollInterval is the base interval for checking claimable stage tasks.
	PollInterval time.Duration `yaml:"poll_interval"`

	// PollIntervalJitter is the random jitter added to PollInterval.
	// Actual interval: PollInterval ± PollIntervalJitter.
	PollIntervalJitter time.Duration `yaml:"poll_interval_jitter"`

	// StageTaskTimeout is the maximum time a single stage task (one
	// discovery sweep, one preparation batch, one generation call, one
	// posting attempt) can run before being treated as failed.
	StageTaskTimeout time.Duration `yaml:"stage_task_timeout"`

	// GracefulShutdownTimeout is the max time to wait for active stage
	// tasks to complete during shutdown. Should match StageTaskTimeout.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`

	// HeartbeatInterval is how often a worker updates heartbeat_at
	// on the stage task it currently holds.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// OrphanDetectionInterval is how often to scan for orphaned stage tasks.
	OrphanDetectionInterval time.Duration `yaml:"orphan_detection_interval"`

	// OrphanThreshold is how long a stage task can go without a heartbeat
	// before it is considered orphaned and reclaimed.
	OrphanThreshold time.Duration `yaml:"orphan_threshold"`

	// ProcessDurationCheckInterval is how often the scheduler checks
	// running MonitoringProcess rows against their max_duration_minutes.
	ProcessDurationCheckInterval time.Duration `yaml:"process_duration_check_interval"`
}

// DefaultOrchestratorConfig returns the built-in orchestrator defaults.
func DefaultOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		WorkerCount:                  2,
		MaxConcurrentPerStage:        10,
		PollInterval:                 2 * time.Second,
		PollIntervalJitter:           500 * time.Millisecond,
		StageTaskTimeout:             10 * time.Minute,
		GracefulShutdownTimeout:      10 * time.Minute,
		HeartbeatInterval:            30 * time.Second,
		OrphanDetectionInterval:      5 * time.Minute,
		OrphanThreshold:              5 * time.Minute,
		ProcessDurationCheckInterval: 1 * time.Minute,
	}
}
