package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/services"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// Orchestrator owns the MonitoringProcess state machine (spec.md §4.5.1):
// start()/stop()/delete() plus the background duration checker that
// auto-completes processes whose wall-clock budget has elapsed.
type Orchestrator struct {
	store *store.Store
	pool  *WorkerPool
	cfg   *config.OrchestratorConfig

	stopCh chan struct{}
}

// New builds an Orchestrator. pool may be nil at construction time and
// filled in later via SetPool — the stage executors a WorkerPool is built
// from each hold a reference back to the Orchestrator that enqueues their
// next stage, so callers typically build the Orchestrator first, then the
// executors and pool, then close the loop with SetPool.
func New(st *store.Store, pool *WorkerPool, cfg *config.OrchestratorConfig) *Orchestrator {
	return &Orchestrator{store: st, pool: pool, cfg: cfg, stopCh: make(chan struct{})}
}

// SetPool attaches the WorkerPool this Orchestrator cancels in-flight tasks
// through. See New for why this is a separate step.
func (o *Orchestrator) SetPool(pool *WorkerPool) {
	o.pool = pool
}

// RunDurationChecker starts the background loop until ctx is cancelled.
// Call from a goroutine.
func (o *Orchestrator) RunDurationChecker(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.ProcessDurationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-ticker.C:
			if err := o.checkDurations(ctx); err != nil {
				slog.Error("process duration check failed", "error", err)
			}
		}
	}
}

// Stop halts the duration checker loop.
func (o *Orchestrator) Stop() {
	close(o.stopCh)
}

func (o *Orchestrator) checkDurations(ctx context.Context) error {
	expired, err := o.store.ListExpiredRunningProcesses(ctx)
	if err != nil {
		return fmt.Errorf("listing expired processes: %w", err)
	}
	for _, p := range expired {
		if err := o.completeOnDurationBreach(ctx, p.ID); err != nil {
			slog.Error("failed to auto-complete process on duration breach", "process_id", p.ID, "error", err)
		}
	}
	return nil
}

// StartProcess implements start() (spec.md §4.5.1): validates preconditions,
// enqueues Discovery, and transitions created -> running.
func (o *Orchestrator) StartProcess(ctx context.Context, processID string) error {
	p, err := o.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return services.NewValidationError("process_id", "process is not active")
	}
	if p.Status != string(config.ProcessStatusCreated) {
		return services.NewValidationError("status", fmt.Sprintf("cannot start process in status %q", p.Status))
	}

	loginIDs, err := o.store.ListActiveProcessLoginIDs(ctx, processID)
	if err != nil {
		return err
	}
	if len(loginIDs) == 0 {
		return services.NewValidationError("logins", "process has no active login")
	}

	promptIDs, err := o.store.ListActiveProcessPromptIDs(ctx, processID)
	if err != nil {
		return err
	}
	if len(promptIDs) == 0 {
		return services.NewValidationError("prompts", "process has no active prompt template")
	}

	if p.LLMProviderConfigID == "" {
		return services.NewValidationError("llm_provider_config_id", "process has no configured LLM provider")
	}

	var running int
	err = o.store.WithTx(ctx, func(tx *sql.Tx) error {
		running, err = o.store.CountRunningProcessesForUser(ctx, tx, p.UserID)
		return err
	})
	if err != nil {
		return err
	}
	if running >= maxConcurrentPerUser() {
		return services.NewValidationError("user_id", "too many concurrently running processes for this user")
	}

	taskID, err := o.store.EnqueueStageTask(ctx, processID, string(config.StageDiscovery))
	if err != nil {
		return &services.QueueUnavailable{Op: "enqueue discovery", Err: err}
	}

	now := time.Now()
	err = o.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := o.store.UpdateMonitoringProcessStatus(ctx, tx, processID, string(config.ProcessStatusRunning), &now, nil); err != nil {
			return err
		}
		return o.store.SetStageTaskID(ctx, tx, processID, string(config.StageDiscovery), taskID)
	})
	if err != nil {
		return err
	}

	slog.Info("monitoring process started", "process_id", processID, "discovery_task_id", taskID)
	return nil
}

// StopProcess implements stop(reason) (spec.md §4.5.1): idempotent,
// cancels any in-flight stage task and records a terminal status.
func (o *Orchestrator) StopProcess(ctx context.Context, processID, reason string) error {
	p, err := o.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return err
	}
	if p.Status != string(config.ProcessStatusRunning) {
		return nil // idempotent: already terminal
	}

	tasks, err := o.store.GetStageTasksForProcess(ctx, processID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.Status == "queued" || t.Status == "claimed" {
			o.pool.CancelTask(t.ID)
			if err := o.store.CancelStageTask(ctx, t.ID); err != nil {
				slog.Warn("failed to cancel stage task", "stage_task_id", t.ID, "error", err)
			}
		}
	}

	status := string(config.ProcessStatusStopped)
	if reason == "error" {
		status = string(config.ProcessStatusFailed)
	}

	now := time.Now()
	return o.store.WithTx(ctx, func(tx *sql.Tx) error {
		return o.store.UpdateMonitoringProcessStatus(ctx, tx, processID, status, nil, &now)
	})
}

// DeleteProcess implements delete() (spec.md §4.5.1): stops the process
// first if running, then soft-deletes it and its join-table associations.
func (o *Orchestrator) DeleteProcess(ctx context.Context, processID string) error {
	p, err := o.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return err
	}
	if p.Status == string(config.ProcessStatusRunning) {
		if err := o.StopProcess(ctx, processID, "deleted"); err != nil {
			return err
		}
	}
	return o.store.DeactivateProcess(ctx, processID)
}

// completeOnDurationBreach transitions a process to completed and cancels
// any in-flight stage task, per the "immediate termination on duration
// breach at the next stage boundary" guarantee (spec.md §4.5.1).
func (o *Orchestrator) completeOnDurationBreach(ctx context.Context, processID string) error {
	tasks, err := o.store.GetStageTasksForProcess(ctx, processID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.Status == "queued" || t.Status == "claimed" {
			o.pool.CancelTask(t.ID)
			if err := o.store.CancelStageTask(ctx, t.ID); err != nil {
				slog.Warn("failed to cancel stage task on duration breach", "stage_task_id", t.ID, "error", err)
			}
		}
	}

	now := time.Now()
	return o.store.WithTx(ctx, func(tx *sql.Tx) error {
		return o.store.UpdateMonitoringProcessStatus(ctx, tx, processID, string(config.ProcessStatusCompleted), nil, &now)
	})
}

// EnqueueNextStage enqueues the stage following the one just completed,
// recording its task id on the process row. Called by a stage executor
// after a successful batch write, never from within the same transaction
// as that write (spec.md §4.5.6: transactions never span I/O or queue
// operations).
func (o *Orchestrator) EnqueueNextStage(ctx context.Context, processID string, completed config.StageName) error {
	next, ok := nextStage(completed)
	if !ok {
		now := time.Now()
		return o.store.WithTx(ctx, func(tx *sql.Tx) error {
			return o.store.UpdateMonitoringProcessStatus(ctx, tx, processID, string(config.ProcessStatusCompleted), nil, &now)
		})
	}

	taskID, err := o.store.EnqueueStageTask(ctx, processID, string(next))
	if err != nil {
		return &services.QueueUnavailable{Op: "enqueue " + string(next), Err: err}
	}
	return o.store.SetStageTaskID(ctx, o.store, processID, string(next), taskID)
}

func nextStage(s config.StageName) (config.StageName, bool) {
	for i, st := range config.Stages {
		if st == s {
			if i+1 < len(config.Stages) {
				return config.Stages[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// maxConcurrentPerUser is the MAX_CONCURRENT_PER_USER cap (spec.md §4.5.1).
// It always returns the built-in value from config.DefaultDefaults(); a
// configured Defaults.MaxConcurrentPerUser is not consulted.
func maxConcurrentPerUser() int {
	return config.DefaultDefaults().MaxConcurrentPerUser
}
