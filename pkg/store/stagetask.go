package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// EnqueueStageTask inserts a queued stage task for a process, or returns
// the existing one if (process_id, stage) already has a row (the unique
// index backs idempotent re-enqueue).
func (s *Store) EnqueueStageTask(ctx context.Context, processID, stage string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_tasks (stage_task_id, process_id, stage, status)
		VALUES ($1,$2,$3,'queued')
		ON CONFLICT (process_id, stage) DO NOTHING`, id, processID, stage)
	if err != nil {
		return "", translate(err, "stage_task", id)
	}

	var existing string
	err = s.db.QueryRowContext(ctx, `SELECT stage_task_id FROM stage_tasks WHERE process_id = $1 AND stage = $2`, processID, stage).Scan(&existing)
	if err != nil {
		return "", translate(err, "stage_task", processID+"/"+stage)
	}
	return existing, nil
}

// ClaimNextStageTask claims the oldest queued task for the given stage
// using SELECT ... FOR UPDATE SKIP LOCKED, so multiple orchestrator
// workers can poll the same queue without contending on the same row.
func (s *Store) ClaimNextStageTask(ctx context.Context, stage, workerID string) (*StageTask, error) {
	var t StageTask
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT stage_task_id, process_id, stage, status, claimed_by, claimed_at, heartbeat_at, completed_at, error_message, created_at
			FROM stage_tasks
			WHERE stage = $1 AND status = 'queued'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1`, stage)

		if err := row.Scan(&t.ID, &t.ProcessID, &t.Stage, &t.Status, &t.ClaimedBy, &t.ClaimedAt,
			&t.HeartbeatAt, &t.CompletedAt, &t.ErrorMessage, &t.CreatedAt); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE stage_tasks SET status = 'claimed', claimed_by = $2, claimed_at = now(), heartbeat_at = now()
			WHERE stage_task_id = $1`, t.ID, workerID)
		return err
	})
	if err != nil {
		return nil, translate(err, "stage_task", stage)
	}
	t.Status = "claimed"
	return &t, nil
}

// CountClaimedByStage counts in-progress (claimed) tasks for a stage across
// every worker/pod, backing the MaxConcurrentPerStage admission check
// before a worker attempts to claim another task.
func (s *Store) CountClaimedByStage(ctx context.Context, stage string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM stage_tasks WHERE stage = $1 AND status = 'claimed'`, stage).Scan(&n)
	return n, err
}

// HeartbeatStageTask refreshes a claimed task's heartbeat so orphan
// detection doesn't reclaim work still in progress.
func (s *Store) HeartbeatStageTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE stage_tasks SET heartbeat_at = now() WHERE stage_task_id = $1 AND status = 'claimed'`, id)
	return err
}

// CompleteStageTask marks a claimed task done.
func (s *Store) CompleteStageTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE stage_tasks SET status = 'completed', completed_at = now() WHERE stage_task_id = $1`, id)
	return err
}

// FailStageTask marks a claimed task failed with an error message.
func (s *Store) FailStageTask(ctx context.Context, id, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stage_tasks SET status = 'failed', completed_at = now(), error_message = $2 WHERE stage_task_id = $1`, id, errMsg)
	return err
}

// CancelStageTask marks a queued or claimed task cancelled, used by
// stop()/delete() to unwind in-flight work for a process.
func (s *Store) CancelStageTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE stage_tasks SET status = 'cancelled', completed_at = now()
		WHERE stage_task_id = $1 AND status IN ('queued','claimed')`, id)
	return err
}

// ReclaimOrphanedTasks resets claimed tasks whose heartbeat is older than
// the threshold back to queued, so another worker can pick them up after
// a crashed worker abandons them.
func (s *Store) ReclaimOrphanedTasks(ctx context.Context, olderThanSeconds int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stage_tasks
		SET status = 'queued', claimed_by = NULL, claimed_at = NULL, heartbeat_at = NULL
		WHERE status = 'claimed' AND heartbeat_at < now() - make_interval(secs => $1)`, olderThanSeconds)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QueueDepth reports the queued and claimed task counts for every stage,
// backing the CLI's celery-compatibility `info`/`health` shim.
func (s *Store) QueueDepth(ctx context.Context) (map[string]QueueStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, status, count(*)
		FROM stage_tasks
		WHERE status IN ('queued', 'claimed')
		GROUP BY stage, status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]QueueStats)
	for rows.Next() {
		var stage, status string
		var n int
		if err := rows.Scan(&stage, &status, &n); err != nil {
			return nil, err
		}
		stats := out[stage]
		switch status {
		case "queued":
			stats.Queued = n
		case "claimed":
			stats.Claimed = n
		}
		out[stage] = stats
	}
	return out, rows.Err()
}

// ClearQueuedStageTasks cancels every still-queued (not yet claimed) stage
// task, the CLI's `celery clear` shim. In-flight (claimed) tasks are left
// alone — clearing the queue never interrupts work already running.
func (s *Store) ClearQueuedStageTasks(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stage_tasks SET status = 'cancelled', completed_at = now() WHERE status = 'queued'`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetStageTasksForProcess returns every stage task row for a process, used
// by stop()/status queries to show per-stage progress.
func (s *Store) GetStageTasksForProcess(ctx context.Context, processID string) ([]*StageTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage_task_id, process_id, stage, status, claimed_by, claimed_at, heartbeat_at, completed_at, error_message, created_at
		FROM stage_tasks WHERE process_id = $1 ORDER BY created_at`, processID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*StageTask
	for rows.Next() {
		var t StageTask
		if err := rows.Scan(&t.ID, &t.ProcessID, &t.Stage, &t.Status, &t.ClaimedBy, &t.ClaimedAt,
			&t.HeartbeatAt, &t.CompletedAt, &t.ErrorMessage, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
