package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const aiCommentColumns = `
	comment_id, mymoment_article_id, mymoment_comment_id, user_id, login_id, monitoring_process_id,
	prompt_template_id, llm_provider_config_id,
	article_title, article_author, article_category, article_url, article_content, article_raw_html,
	article_published_at, article_edited_at, article_task_id, article_scraped_at,
	comment_content, ai_model_name, ai_provider_name, generation_tokens, generation_time_ms,
	status, created_at, posted_at, failed_at, error_message, retry_count, is_active, is_hidden`

func scanAIComment(r rowScanner, c *AIComment) error {
	return r.Scan(
		&c.ID, &c.MymomentArticleID, &c.MymomentCommentID, &c.UserID, &c.LoginID, &c.MonitoringProcessID,
		&c.PromptTemplateID, &c.LLMProviderConfigID,
		&c.ArticleTitle, &c.ArticleAuthor, &c.ArticleCategory, &c.ArticleURL, &c.ArticleContent, &c.ArticleRawHTML,
		&c.ArticlePublishedAt, &c.ArticleEditedAt, &c.ArticleTaskID, &c.ArticleScrapedAt,
		&c.CommentContent, &c.AIModelName, &c.AIProviderName, &c.GenerationTokens, &c.GenerationTimeMs,
		&c.Status, &c.CreatedAt, &c.PostedAt, &c.FailedAt, &c.ErrorMessage, &c.RetryCount, &c.IsActive, &c.IsHidden)
}

// BatchDiscoverArticles inserts the whole (article, login) x prompts cross product
// for one Discovery pass inside a single write transaction (spec.md
// §4.5.2 step 4), relying on the same ON CONFLICT ... DO NOTHING dedupe
// each row would get individually. Returns the ids actually inserted
// (excludes rows that already existed).
func (s *Store) BatchDiscoverArticles(ctx context.Context, comments []*AIComment) ([]string, error) {
	var inserted []string
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, c := range comments {
			c.ID = uuid.NewString()
			res, err := tx.ExecContext(ctx, `
				INSERT INTO ai_comments
					(comment_id, mymoment_article_id, user_id, login_id, monitoring_process_id, prompt_template_id,
					 llm_provider_config_id, article_title, article_author, article_category, article_url,
					 article_published_at, status)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,'discovered')
				ON CONFLICT (mymoment_article_id, monitoring_process_id, login_id, prompt_template_id) DO NOTHING`,
				c.ID, c.MymomentArticleID, c.UserID, c.LoginID, c.MonitoringProcessID, c.PromptTemplateID,
				c.LLMProviderConfigID, c.ArticleTitle, c.ArticleAuthor, c.ArticleCategory, c.ArticleURL, c.ArticlePublishedAt)
			if err != nil {
				return translate(err, "ai_comment", c.ID)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted = append(inserted, c.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// GetAIComment fetches one comment by id.
func (s *Store) GetAIComment(ctx context.Context, id string) (*AIComment, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+aiCommentColumns+" FROM ai_comments WHERE comment_id = $1", id)
	var c AIComment
	if err := scanAIComment(row, &c); err != nil {
		return nil, translate(err, "ai_comment", id)
	}
	return &c, nil
}

// ListAICommentsByStatus returns a process's comments in a given status,
// the shape each stage's batch read uses to pick up its unit of work
// (spec.md §4.5.2-4.5.5).
func (s *Store) ListAICommentsByStatus(ctx context.Context, processID, status string, limit int) ([]*AIComment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+aiCommentColumns+`
		FROM ai_comments
		WHERE monitoring_process_id = $1 AND status = $2 AND is_active = TRUE
		ORDER BY created_at
		LIMIT $3`, processID, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AIComment
	for rows.Next() {
		var c AIComment
		if err := scanAIComment(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// MarkPrepared records the scraped article body fetched in Preparation and
// advances status discovered -> prepared, appending the transition to the
// process's audit trail (process_events, spec.md §8 invariant 3) in the
// same transaction as the status write.
func (s *Store) MarkPrepared(ctx context.Context, id, processID, content, rawHTML string, publishedAt time.Time, editedAt *time.Time, scrapedAt time.Time) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE ai_comments
			SET article_content = $2, article_raw_html = $3, article_published_at = $4, article_edited_at = $5,
			    article_scraped_at = $6, status = 'prepared'
			WHERE comment_id = $1 AND status = 'discovered'`, id, content, rawHTML, publishedAt, editedAt, scrapedAt)
		if err != nil {
			return err
		}
		return insertProcessEventIfUpdated(ctx, tx, res, processID, id, "discovered", "prepared")
	})
}

// MarkGenerated records the LLM-produced comment body in Generation and
// advances status prepared -> generated, appending the transition to the
// audit trail.
func (s *Store) MarkGenerated(ctx context.Context, id, processID, commentContent, modelName, providerName string, tokens, timeMs *int) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE ai_comments
			SET comment_content = $2, ai_model_name = $3, ai_provider_name = $4,
			    generation_tokens = $5, generation_time_ms = $6, status = 'generated'
			WHERE comment_id = $1 AND status = 'prepared'`, id, commentContent, modelName, providerName, tokens, timeMs)
		if err != nil {
			return err
		}
		return insertProcessEventIfUpdated(ctx, tx, res, processID, id, "prepared", "generated")
	})
}

// MarkPosted records the platform-assigned comment id and advances status
// generated -> posted, appending the transition to the audit trail. Called
// exactly once per comment since posting is at-most-once (spec.md §10
// Non-goals).
func (s *Store) MarkPosted(ctx context.Context, id, processID, loginID, mymomentCommentID string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE ai_comments
			SET mymoment_comment_id = $2, login_id = $3, posted_at = now(), status = 'posted'
			WHERE comment_id = $1 AND status = 'generated'`, id, mymomentCommentID, loginID)
		if err != nil {
			return err
		}
		return insertProcessEventIfUpdated(ctx, tx, res, processID, id, "generated", "posted")
	})
}

// MarkFailed records a terminal failure for any stage, incrementing
// retry_count (no caller compares it against MaxRetries; a failed row stays
// failed and is not retried by the orchestrator), and
// appends the transition to the audit trail. fromStatus is the status the
// comment was in when the failure was observed (discovered/prepared/
// generated), recorded as-is since the row itself no longer carries it
// once overwritten with 'failed'.
func (s *Store) MarkFailed(ctx context.Context, id, processID, fromStatus, errMsg string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE ai_comments
			SET status = 'failed', failed_at = now(), error_message = $2, retry_count = retry_count + 1
			WHERE comment_id = $1`, id, errMsg)
		if err != nil {
			return err
		}
		return insertProcessEventIfUpdated(ctx, tx, res, processID, id, fromStatus, "failed")
	})
}

// ResetForRetry returns a failed comment to toStatus so a subsequent pass
// can reattempt it. It does not check retry_count against any limit, and no
// stage executor calls it.
func (s *Store) ResetForRetry(ctx context.Context, id, toStatus string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ai_comments SET status = $2, failed_at = NULL, error_message = NULL
		WHERE comment_id = $1 AND status = 'failed'`, id, toStatus)
	return err
}

// AlreadyPostedForArticle reports whether any comment already exists in
// status=posted for this (article, login) pair within the process, the
// duplicate-post suppression check Stage 4/Posting runs before posting
// (spec.md §4.5.5, at-most-once contract).
func (s *Store) AlreadyPostedForArticle(ctx context.Context, articleID, processID, loginID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ai_comments
			WHERE mymoment_article_id = $1 AND monitoring_process_id = $2
			  AND login_id = $3 AND status = 'posted'
		)`, articleID, processID, loginID).Scan(&exists)
	return exists, err
}

// SoftDeleteOldComments deactivates posted/failed comments past the
// retention window, the batch counterpart to the per-stage Mark* writers.
func (s *Store) SoftDeleteOldComments(ctx context.Context, olderThanDays int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ai_comments
		SET is_active = FALSE
		WHERE is_active = TRUE
		  AND status IN ('posted', 'failed')
		  AND created_at < now() - make_interval(days => $1)`, olderThanDays)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertProcessEvent appends an audit row for a status transition.
func (s *Store) InsertProcessEvent(ctx context.Context, processID, commentID, fromStatus, toStatus string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_events (process_event_id, process_id, comment_id, from_status, to_status)
		VALUES ($1,$2,$3,$4,$5)`, uuid.NewString(), processID, commentID, fromStatus, toStatus)
	return err
}

// insertProcessEventIfUpdated appends an audit row in the same transaction
// as a Mark* status write, but only when that write actually transitioned a
// row. A guarded UPDATE (WHERE status = ...) that matched zero rows means a
// concurrent caller already made this transition, so recording a second
// audit row here would fabricate a transition that didn't happen on this
// call.
func insertProcessEventIfUpdated(ctx context.Context, tx *sql.Tx, res sql.Result, processID, commentID, fromStatus, toStatus string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO process_events (process_event_id, process_id, comment_id, from_status, to_status)
		VALUES ($1,$2,$3,$4,$5)`, uuid.NewString(), processID, commentID, fromStatus, toStatus)
	return err
}
