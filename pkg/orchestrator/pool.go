package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// WorkerPool runs WorkerCount goroutines per pipeline stage, each
// independently polling and claiming stage_tasks rows, plus a background
// orphan-reclaim scan.
type WorkerPool struct {
	podID     string
	store     *store.Store
	cfg       *config.OrchestratorConfig
	executors map[string]StageExecutor
	workers   []*Worker
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	activeTasks map[string]context.CancelFunc
	mu          sync.RWMutex
	started     bool

	orphansMu        sync.Mutex
	lastOrphanScan   time.Time
	orphansRecovered int
}

// NewWorkerPool builds a pool with one StageExecutor per config.Stages entry.
func NewWorkerPool(podID string, st *store.Store, cfg *config.OrchestratorConfig, executors map[string]StageExecutor) *WorkerPool {
	return &WorkerPool{
		podID:       podID,
		store:       st,
		cfg:         cfg,
		executors:   executors,
		stopCh:      make(chan struct{}),
		activeTasks: make(map[string]context.CancelFunc),
	}
}

// Start spawns WorkerCount goroutines per stage plus the orphan scanner.
// Safe to call multiple times; later calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	if p.started {
		slog.Warn("orchestrator pool already started, ignoring duplicate Start call", "pod_id", p.podID)
		return
	}
	p.started = true

	for _, stage := range config.Stages {
		executor, ok := p.executors[string(stage)]
		if !ok {
			slog.Error("no stage executor registered", "stage", stage)
			continue
		}
		for i := 0; i < p.cfg.WorkerCount; i++ {
			workerID := fmt.Sprintf("%s-%s-%d", p.podID, stage, i)
			worker := NewWorker(workerID, string(stage), p.store, p.cfg, executor, p)
			p.workers = append(p.workers, worker)
			worker.Start(ctx)
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanDetection(ctx)
	}()

	slog.Info("orchestrator pool started", "pod_id", p.podID, "workers", len(p.workers))
}

// Stop signals every worker to stop and waits for in-flight tasks to finish.
func (p *WorkerPool) Stop() {
	slog.Info("stopping orchestrator pool gracefully")
	for _, w := range p.workers {
		w.Stop()
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("orchestrator pool stopped")
}

// RegisterTask stores a cancel function for a claimed stage task so
// CancelTask can interrupt it.
func (p *WorkerPool) RegisterTask(taskID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeTasks[taskID] = cancel
}

// UnregisterTask removes a task's cancel function once it finishes.
func (p *WorkerPool) UnregisterTask(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeTasks, taskID)
}

// CancelTask cancels a stage task's context if it is running on this pod.
// Returns true if found locally.
func (p *WorkerPool) CancelTask(taskID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeTasks[taskID]; ok {
		cancel()
		return true
	}
	return false
}

// Health reports the pool's current state.
func (p *WorkerPool) Health() *PoolHealth {
	stats := make([]WorkerHealth, len(p.workers))
	active := 0
	for i, w := range p.workers {
		h := w.Health()
		stats[i] = h
		if h.Status == workerStatusWorking {
			active++
		}
	}

	p.orphansMu.Lock()
	lastScan := p.lastOrphanScan
	recovered := p.orphansRecovered
	p.orphansMu.Unlock()

	return &PoolHealth{
		IsHealthy:        len(p.workers) > 0,
		TotalWorkers:     len(p.workers),
		ActiveWorkers:    active,
		WorkerStats:      stats,
		LastOrphanScan:   lastScan,
		OrphansRecovered: recovered,
	}
}

// runOrphanDetection periodically reclaims stage tasks whose heartbeat has
// gone stale, so a crashed worker never wedges a process's pipeline.
func (p *WorkerPool) runOrphanDetection(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.OrphanDetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			n, err := p.store.ReclaimOrphanedTasks(ctx, int(p.cfg.OrphanThreshold.Seconds()))
			p.orphansMu.Lock()
			p.lastOrphanScan = time.Now()
			if err == nil {
				p.orphansRecovered += int(n)
			}
			p.orphansMu.Unlock()
			if err != nil {
				slog.Error("orphan reclaim scan failed", "error", err)
			} else if n > 0 {
				slog.Warn("reclaimed orphaned stage tasks", "count", n)
			}
		}
	}
}
