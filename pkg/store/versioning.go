package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CreateTrackedStudent registers a student whose articles should be
// versioned on every monitoring pass (C7, spec.md §4.7).
func (s *Store) CreateTrackedStudent(ctx context.Context, t *TrackedStudent) error {
	t.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_students
			(tracked_student_id, user_id, admin_login_id, mymoment_username, content_changes_only)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.UserID, t.AdminLoginID, t.MymomentUsername, t.ContentChangesOnly)
	return translate(err, "tracked_student", t.ID)
}

// GetTrackedStudent fetches a tracked student by id.
func (s *Store) GetTrackedStudent(ctx context.Context, id string) (*TrackedStudent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tracked_student_id, user_id, admin_login_id, mymoment_username, content_changes_only, last_backup_at, created_at
		FROM tracked_students WHERE tracked_student_id = $1`, id)

	var t TrackedStudent
	err := row.Scan(&t.ID, &t.UserID, &t.AdminLoginID, &t.MymomentUsername, &t.ContentChangesOnly, &t.LastBackupAt, &t.CreatedAt)
	if err != nil {
		return nil, translate(err, "tracked_student", id)
	}
	return &t, nil
}

// ListTrackedStudentsForUser returns every student a user tracks.
func (s *Store) ListTrackedStudentsForUser(ctx context.Context, userID string) ([]*TrackedStudent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tracked_student_id, user_id, admin_login_id, mymoment_username, content_changes_only, last_backup_at, created_at
		FROM tracked_students WHERE user_id = $1 ORDER BY mymoment_username`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TrackedStudent
	for rows.Next() {
		var t TrackedStudent
		if err := rows.Scan(&t.ID, &t.UserID, &t.AdminLoginID, &t.MymomentUsername, &t.ContentChangesOnly, &t.LastBackupAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// GetTrackedStudentByUsername looks up a user's tracked-student row by
// platform username, the join the Preparation stage uses to decide whether
// a freshly-fetched article needs a version snapshot (C7, spec.md §4.7).
// Returns a NotFoundError if the user doesn't track this student.
func (s *Store) GetTrackedStudentByUsername(ctx context.Context, userID, mymomentUsername string) (*TrackedStudent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT tracked_student_id, user_id, admin_login_id, mymoment_username, content_changes_only, last_backup_at, created_at
		FROM tracked_students WHERE user_id = $1 AND mymoment_username = $2`, userID, mymomentUsername)

	var t TrackedStudent
	err := row.Scan(&t.ID, &t.UserID, &t.AdminLoginID, &t.MymomentUsername, &t.ContentChangesOnly, &t.LastBackupAt, &t.CreatedAt)
	if err != nil {
		return nil, translate(err, "tracked_student", userID+"/"+mymomentUsername)
	}
	return &t, nil
}

// TouchTrackedStudentBackup advances last_backup_at after a version has
// been written (or confirmed unchanged) for this student.
func (s *Store) TouchTrackedStudentBackup(ctx context.Context, tx *sql.Tx, id string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE tracked_students SET last_backup_at = $2 WHERE tracked_student_id = $1`, id, at)
	return err
}

// LatestActiveArticleVersion returns the newest active version row for a
// (student, article) pair, or a NotFoundError if none exists yet - the
// read create_version's dedupe-if-unchanged step starts from.
func (s *Store) LatestActiveArticleVersion(ctx context.Context, trackedStudentID, articleID string) (*ArticleVersion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT article_version_id, tracked_student_id, mymoment_article_id, version_number, content_hash,
		       title, content, raw_html, is_active, created_at
		FROM article_versions
		WHERE tracked_student_id = $1 AND mymoment_article_id = $2 AND is_active = TRUE
		ORDER BY version_number DESC LIMIT 1`, trackedStudentID, articleID)

	var v ArticleVersion
	err := row.Scan(&v.ID, &v.TrackedStudentID, &v.MymomentArticleID, &v.VersionNumber, &v.ContentHash,
		&v.Title, &v.Content, &v.RawHTML, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return nil, translate(err, "article_version", trackedStudentID+"/"+articleID)
	}
	return &v, nil
}

// NextVersionNumber returns 1 + the highest version_number recorded for a
// (student, article) pair, preserving the monotonic version_number
// invariant even across soft-deleted rows.
func (s *Store) NextVersionNumber(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) (int, error) {
	var max sql.NullInt64
	err := tx.QueryRowContext(ctx, `
		SELECT MAX(version_number) FROM article_versions
		WHERE tracked_student_id = $1 AND mymoment_article_id = $2`, trackedStudentID, articleID).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// CountActiveVersions counts active versions for a (student, article) pair,
// used to enforce MAX_VERSIONS_PER_STUDENT (config.RetentionConfig).
func (s *Store) CountActiveVersions(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT count(*) FROM article_versions
		WHERE tracked_student_id = $1 AND mymoment_article_id = $2 AND is_active = TRUE`, trackedStudentID, articleID).Scan(&n)
	return n, err
}

// SoftDeleteOldestVersion deactivates the single oldest active version for
// a (student, article) pair, the overflow side of the MAX_VERSIONS cap.
func (s *Store) SoftDeleteOldestVersion(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE article_versions SET is_active = FALSE
		WHERE article_version_id = (
			SELECT article_version_id FROM article_versions
			WHERE tracked_student_id = $1 AND mymoment_article_id = $2 AND is_active = TRUE
			ORDER BY version_number ASC LIMIT 1
		)`, trackedStudentID, articleID)
	return err
}

// InsertArticleVersion writes a new version row inside the caller's
// transaction (create_version, spec.md §4.7).
func (s *Store) InsertArticleVersion(ctx context.Context, tx *sql.Tx, v *ArticleVersion) error {
	v.ID = uuid.NewString()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO article_versions
			(article_version_id, tracked_student_id, mymoment_article_id, version_number, content_hash, title, content, raw_html, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,TRUE)`,
		v.ID, v.TrackedStudentID, v.MymomentArticleID, v.VersionNumber, v.ContentHash, v.Title, v.Content, v.RawHTML)
	return err
}
