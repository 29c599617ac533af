package store

import "context"

// ListProcessEventsForComment returns the full audit trail of status
// transitions recorded for a single comment (InsertProcessEvent in
// comment.go is the write side).
func (s *Store) ListProcessEventsForComment(ctx context.Context, commentID string) ([]*ProcessEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT process_event_id, process_id, comment_id, from_status, to_status, at
		FROM process_events WHERE comment_id = $1 ORDER BY at`, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ProcessEvent
	for rows.Next() {
		var e ProcessEvent
		if err := rows.Scan(&e.ID, &e.ProcessID, &e.CommentID, &e.FromStatus, &e.ToStatus, &e.At); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ListProcessEventsForProcess returns a process's full audit trail, oldest
// first.
func (s *Store) ListProcessEventsForProcess(ctx context.Context, processID string) ([]*ProcessEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT process_event_id, process_id, comment_id, from_status, to_status, at
		FROM process_events WHERE process_id = $1 ORDER BY at`, processID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ProcessEvent
	for rows.Next() {
		var e ProcessEvent
		if err := rows.Scan(&e.ID, &e.ProcessID, &e.CommentID, &e.FromStatus, &e.ToStatus, &e.At); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// DeleteProcessEventsOlderThan removes audit rows past the retention TTL.
func (s *Store) DeleteProcessEventsOlderThan(ctx context.Context, days int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM process_events WHERE at < now() - make_interval(days => $1)`, days)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
