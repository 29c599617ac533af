package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// TaskRegistry is the subset of WorkerPool a Worker uses to register its
// currently-claimed task for external cancellation (process stop()).
type TaskRegistry interface {
	RegisterTask(taskID string, cancel context.CancelFunc)
	UnregisterTask(taskID string)
}

// Worker polls a single stage's queue, claiming and executing one task at
// a time.
type Worker struct {
	id       string
	stage    string
	store    *store.Store
	cfg      *config.OrchestratorConfig
	executor StageExecutor
	registry TaskRegistry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu             sync.RWMutex
	status         string
	currentTaskID  string
	tasksProcessed int
	lastActivity   time.Time
}

// NewWorker builds a Worker for one stage.
func NewWorker(id, stage string, st *store.Store, cfg *config.OrchestratorConfig, executor StageExecutor, registry TaskRegistry) *Worker {
	return &Worker{
		id:           id,
		stage:        stage,
		store:        st,
		cfg:          cfg,
		executor:     executor,
		registry:     registry,
		stopCh:       make(chan struct{}),
		status:       workerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker's polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for its current task to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns this worker's current state.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:             w.id,
		Stage:          w.stage,
		Status:         w.status,
		CurrentTaskID:  w.currentTaskID,
		TasksProcessed: w.tasksProcessed,
		LastActivity:   w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id, "stage", w.stage)
	log.Info("orchestrator worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("orchestrator worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, orchestrator worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoTasksAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("stage task processing error", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess checks the stage's global concurrency cap, claims the
// next queued task, and runs it to completion.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	claimed, err := w.store.CountClaimedByStage(ctx, w.stage)
	if err != nil {
		return fmt.Errorf("checking stage concurrency: %w", err)
	}
	if claimed >= w.cfg.MaxConcurrentPerStage {
		return ErrAtCapacity
	}

	task, err := w.store.ClaimNextStageTask(ctx, w.stage, w.id)
	if err != nil {
		return ErrNoTasksAvailable
	}

	log := slog.With("stage_task_id", task.ID, "process_id", task.ProcessID, "stage", w.stage, "worker_id", w.id)
	log.Info("stage task claimed")

	w.setStatus(workerStatusWorking, task.ID)
	defer w.setStatus(workerStatusIdle, "")

	taskCtx, cancel := context.WithTimeout(ctx, w.cfg.StageTaskTimeout)
	defer cancel()

	w.registry.RegisterTask(task.ID, cancel)
	defer w.registry.UnregisterTask(task.ID)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(taskCtx)
	go w.runHeartbeat(heartbeatCtx, task.ID)

	execErr := w.executor.Execute(taskCtx, task)
	cancelHeartbeat()

	if execErr != nil {
		msg := execErr.Error()
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			msg = fmt.Sprintf("stage task timed out after %v: %v", w.cfg.StageTaskTimeout, execErr)
		}
		if failErr := w.store.FailStageTask(context.Background(), task.ID, msg); failErr != nil {
			log.Error("failed to record stage task failure", "error", failErr)
		}
		log.Warn("stage task failed", "error", execErr)
		w.bumpProcessed()
		return nil
	}

	if err := w.store.CompleteStageTask(context.Background(), task.ID); err != nil {
		log.Error("failed to mark stage task complete", "error", err)
		return err
	}

	log.Info("stage task completed")
	w.bumpProcessed()
	return nil
}

func (w *Worker) runHeartbeat(ctx context.Context, taskID string) {
	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.HeartbeatStageTask(ctx, taskID); err != nil {
				slog.Warn("stage task heartbeat failed", "stage_task_id", taskID, "error", err)
			}
		}
	}
}

func (w *Worker) pollInterval() time.Duration {
	base := w.cfg.PollInterval
	jitter := w.cfg.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

func (w *Worker) setStatus(status, taskID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentTaskID = taskID
	w.lastActivity = time.Now()
}

func (w *Worker) bumpProcessed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasksProcessed++
}
