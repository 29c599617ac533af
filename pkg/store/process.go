package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CreateMonitoringProcess inserts a new process in status=created.
func (s *Store) CreateMonitoringProcess(ctx context.Context, p *MonitoringProcess) error {
	p.ID = uuid.NewString()
	if p.Status == "" {
		p.Status = "created"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monitoring_processes
			(process_id, user_id, name, description, category_filter, task_filter, tab_filter, search_filter, sort_option,
			 llm_provider_config_id, max_duration_minutes, generate_only, hide_comments, fallback_to_next_provider, status, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.UserID, p.Name, p.Description, p.CategoryFilter, p.TaskFilter, p.TabFilter, p.SearchFilter, p.SortOption,
		p.LLMProviderConfigID, p.MaxDurationMinutes, p.GenerateOnly, p.HideComments, p.FallbackToNextProvider, p.Status, p.IsActive)
	return translate(err, "monitoring_process", p.ID)
}

const monitoringProcessColumns = `
	process_id, user_id, name, description, category_filter, task_filter, tab_filter, search_filter, sort_option,
	llm_provider_config_id, max_duration_minutes, generate_only, hide_comments, fallback_to_next_provider,
	status, is_active, started_at, stopped_at, last_activity_at,
	discovery_task_id, preparation_task_id, generation_task_id, posting_task_id,
	articles_discovered, articles_prepared, comments_generated, comments_posted,
	errors_encountered_in_discovery, errors_encountered_in_preparation, errors_encountered_in_generation, errors_encountered_in_posting,
	created_at, updated_at`

func scanMonitoringProcess(r rowScanner, p *MonitoringProcess) error {
	return r.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.CategoryFilter, &p.TaskFilter, &p.TabFilter, &p.SearchFilter, &p.SortOption,
		&p.LLMProviderConfigID, &p.MaxDurationMinutes, &p.GenerateOnly, &p.HideComments, &p.FallbackToNextProvider,
		&p.Status, &p.IsActive, &p.StartedAt, &p.StoppedAt, &p.LastActivityAt,
		&p.DiscoveryTaskID, &p.PreparationTaskID, &p.GenerationTaskID, &p.PostingTaskID,
		&p.ArticlesDiscovered, &p.ArticlesPrepared, &p.CommentsGenerated, &p.CommentsPosted,
		&p.ErrorsEncounteredInDiscovery, &p.ErrorsEncounteredInPreparation, &p.ErrorsEncounteredInGeneration, &p.ErrorsEncounteredInPosting,
		&p.CreatedAt, &p.UpdatedAt)
}

// GetMonitoringProcess fetches a process by id.
func (s *Store) GetMonitoringProcess(ctx context.Context, id string) (*MonitoringProcess, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+monitoringProcessColumns+" FROM monitoring_processes WHERE process_id = $1", id)
	var p MonitoringProcess
	if err := scanMonitoringProcess(row, &p); err != nil {
		return nil, translate(err, "monitoring_process", id)
	}
	return &p, nil
}

// GetMonitoringProcessForUpdate fetches a process row with FOR UPDATE
// inside tx. StartProcess and StopProcess read the row with
// GetMonitoringProcess and do not take this lock.
func (s *Store) GetMonitoringProcessForUpdate(ctx context.Context, tx *sql.Tx, id string) (*MonitoringProcess, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+monitoringProcessColumns+" FROM monitoring_processes WHERE process_id = $1 FOR UPDATE", id)
	var p MonitoringProcess
	if err := scanMonitoringProcess(row, &p); err != nil {
		return nil, translate(err, "monitoring_process", id)
	}
	return &p, nil
}

// ListExpiredRunningProcesses returns every running process whose wall-clock
// duration since started_at has reached its max_duration_minutes budget,
// the set the orchestrator's duration checker auto-completes.
func (s *Store) ListExpiredRunningProcesses(ctx context.Context) ([]*MonitoringProcess, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+monitoringProcessColumns+`
		FROM monitoring_processes
		WHERE status = 'running'
		  AND started_at IS NOT NULL
		  AND now() >= started_at + make_interval(mins => max_duration_minutes)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MonitoringProcess
	for rows.Next() {
		var p MonitoringProcess
		if err := scanMonitoringProcess(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// CountRunningProcessesForUser supports the MAX_CONCURRENT_PER_USER check
// in start() (spec.md §4.5.1).
func (s *Store) CountRunningProcessesForUser(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT count(*) FROM monitoring_processes WHERE user_id = $1 AND status = 'running'`, userID).Scan(&n)
	return n, err
}

// UpdateMonitoringProcessStatus applies a bare status/timestamp transition,
// used by start()/stop()/automatic-duration-stop.
func (s *Store) UpdateMonitoringProcessStatus(ctx context.Context, tx *sql.Tx, id, status string, startedAt, stoppedAt *time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE monitoring_processes
		SET status = $2, started_at = COALESCE($3, started_at), stopped_at = COALESCE($4, stopped_at), updated_at = now()
		WHERE process_id = $1`, id, status, startedAt, stoppedAt)
	return err
}

// SetStageTaskID records the stage task id of the stage being enqueued on
// the process row, per spec.md §4.5's "records the task id of each stage".
func (s *Store) SetStageTaskID(ctx context.Context, tx querier, processID, stage, taskID string) error {
	column := map[string]string{
		"discovery":   "discovery_task_id",
		"preparation": "preparation_task_id",
		"generation":  "generation_task_id",
		"posting":     "posting_task_id",
	}[stage]
	_, err := tx.ExecContext(ctx, `UPDATE monitoring_processes SET `+column+` = $2, updated_at = now() WHERE process_id = $1`, processID, taskID)
	return err
}

// IncrementStageCounters bumps a process's per-stage progress and error
// counters in one statement.
func (s *Store) IncrementStageCounters(ctx context.Context, processID, progressColumn string, progressDelta int, errorColumn string, errorDelta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE monitoring_processes
		SET `+progressColumn+` = `+progressColumn+` + $2,
		    `+errorColumn+` = `+errorColumn+` + $3,
		    last_activity_at = now(),
		    updated_at = now()
		WHERE process_id = $1`, processID, progressDelta, errorDelta)
	return err
}

// DeactivateProcess soft-deletes a process and its join-table associations
// (delete() per spec.md §4.5.1).
func (s *Store) DeactivateProcess(ctx context.Context, processID string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE monitoring_processes SET is_active = FALSE, updated_at = now() WHERE process_id = $1`, processID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE process_logins SET is_active = FALSE WHERE process_id = $1`, processID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE process_prompts SET is_active = FALSE WHERE process_id = $1`, processID)
		return err
	})
}

// AddProcessLogin joins a login to a process.
func (s *Store) AddProcessLogin(ctx context.Context, processID, loginID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_logins (process_login_id, process_id, login_id, is_active) VALUES ($1,$2,$3,TRUE)`,
		uuid.NewString(), processID, loginID)
	return translate(err, "process_login", processID)
}

// AddProcessPrompt joins a prompt template to a process with a weight.
func (s *Store) AddProcessPrompt(ctx context.Context, processID, promptTemplateID string, weight int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_prompts (process_prompt_id, process_id, prompt_template_id, is_active, weight) VALUES ($1,$2,$3,TRUE,$4)`,
		uuid.NewString(), processID, promptTemplateID, weight)
	return translate(err, "process_prompt", processID)
}

// ListActiveProcessLoginIDs returns the active login ids joined to a process.
func (s *Store) ListActiveProcessLoginIDs(ctx context.Context, processID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT login_id FROM process_logins WHERE process_id = $1 AND is_active = TRUE`, processID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveProcessPromptIDs returns the active prompt template ids joined
// to a process.
func (s *Store) ListActiveProcessPromptIDs(ctx context.Context, processID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT prompt_template_id FROM process_prompts WHERE process_id = $1 AND is_active = TRUE`, processID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
