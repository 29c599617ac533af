// Package orchestrator implements C5, the Monitoring Orchestrator: a
// four-stage (discovery, preparation, generation, posting) pipeline that
// drives one MonitoringProcess through a single monitoring pass, running
// as durable background work against the stage_tasks queue table rather
// than an in-memory job list, so any worker in any process replica can
// pick up any stage task.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// Sentinel errors surfaced by pollAndProcess; the worker loop treats both
// as "nothing to do right now" rather than a failure worth logging.
var (
	ErrNoTasksAvailable = errors.New("no stage tasks available")
	ErrAtCapacity       = errors.New("stage at capacity")
)

// StageExecutor runs one stage task to completion. Implementations own
// reading their batch of work from pkg/store, doing the stage's I/O
// (scrape, generate, post), and writing results back — the worker only
// handles claiming, heartbeat, and terminal bookkeeping.
type StageExecutor interface {
	Execute(ctx context.Context, task *store.StageTask) error
}

// WorkerHealth reports one worker goroutine's current state.
type WorkerHealth struct {
	ID             string    `json:"id"`
	Stage          string    `json:"stage"`
	Status         string    `json:"status"` // "idle" or "working"
	CurrentTaskID  string    `json:"current_task_id,omitempty"`
	TasksProcessed int       `json:"tasks_processed"`
	LastActivity   time.Time `json:"last_activity"`
}

// PoolHealth reports the whole orchestrator's state.
type PoolHealth struct {
	IsHealthy        bool           `json:"is_healthy"`
	TotalWorkers     int            `json:"total_workers"`
	ActiveWorkers    int            `json:"active_workers"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}

const (
	workerStatusIdle    = "idle"
	workerStatusWorking = "working"
)
