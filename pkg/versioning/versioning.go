// Package versioning implements C7, the student-article versioning
// component: it hashes a freshly-scraped article body, compares it against
// the latest version on file for that student and article, and either
// leaves the history untouched (content unchanged) or appends a new
// version, evicting the oldest once the per-(student, article) cap is
// exceeded.
package versioning

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/services"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// ArticleSnapshot is the scraped content create_version compares against
// history.
type ArticleSnapshot struct {
	ArticleID string
	Title     string
	Content   string
	RawHTML   string
}

// Store is the subset of pkg/store used by create_version, run inside one
// *sql.Tx so the read-count-evict-insert sequence is atomic.
type Store interface {
	LatestActiveArticleVersion(ctx context.Context, trackedStudentID, articleID string) (*store.ArticleVersion, error)
	NextVersionNumber(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) (int, error)
	CountActiveVersions(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) (int, error)
	SoftDeleteOldestVersion(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) error
	InsertArticleVersion(ctx context.Context, tx *sql.Tx, v *store.ArticleVersion) error
	TouchTrackedStudentBackup(ctx context.Context, tx *sql.Tx, id string, at time.Time) error
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Versioner is C7's entry point, one instance shared across all tracked
// students.
type Versioner struct {
	store     Store
	retention *config.RetentionConfig
}

// New builds a Versioner.
func New(st Store, retention *config.RetentionConfig) *Versioner {
	return &Versioner{store: st, retention: retention}
}

// Result reports what create_version did for one article snapshot.
type Result struct {
	// Changed is false when the content hash matched the latest active
	// version and no new row was written.
	Changed       bool
	VersionNumber int
	Evicted       bool
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// CreateVersion implements create_version (spec.md §4.7): hash the
// snapshot, compare against the latest active version for (student,
// article), and either no-op or insert a new version while enforcing
// MAX_VERSIONS_PER_STUDENT by soft-deleting the oldest active row.
// contentChangesOnly is the tracked student's flag of the same name: when
// true, a hash match against the latest version is a no-op; when false,
// every call inserts a new version regardless of whether the content
// changed.
func (v *Versioner) CreateVersion(ctx context.Context, trackedStudentID string, snap ArticleSnapshot, contentChangesOnly bool) (*Result, error) {
	hash := hashContent(snap.Content)

	latest, err := v.store.LatestActiveArticleVersion(ctx, trackedStudentID, snap.ArticleID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if contentChangesOnly && latest != nil && latest.ContentHash == hash {
		now := time.Now()
		err := v.store.WithTx(ctx, func(tx *sql.Tx) error {
			return v.store.TouchTrackedStudentBackup(ctx, tx, trackedStudentID, now)
		})
		if err != nil {
			return nil, err
		}
		return &Result{Changed: false, VersionNumber: latest.VersionNumber}, nil
	}

	result := &Result{Changed: true}
	now := time.Now()
	err = v.store.WithTx(ctx, func(tx *sql.Tx) error {
		next, err := v.store.NextVersionNumber(ctx, tx, trackedStudentID, snap.ArticleID)
		if err != nil {
			return err
		}

		count, err := v.store.CountActiveVersions(ctx, tx, trackedStudentID, snap.ArticleID)
		if err != nil {
			return err
		}
		if v.retention.MaxVersionsPerStudent > 0 && count >= v.retention.MaxVersionsPerStudent {
			if err := v.store.SoftDeleteOldestVersion(ctx, tx, trackedStudentID, snap.ArticleID); err != nil {
				return err
			}
			result.Evicted = true
		}

		if err := v.store.InsertArticleVersion(ctx, tx, &store.ArticleVersion{
			TrackedStudentID:  trackedStudentID,
			MymomentArticleID: snap.ArticleID,
			VersionNumber:     next,
			ContentHash:       hash,
			Title:             snap.Title,
			Content:           snap.Content,
			RawHTML:           snap.RawHTML,
		}); err != nil {
			return err
		}
		result.VersionNumber = next

		return v.store.TouchTrackedStudentBackup(ctx, tx, trackedStudentID, now)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func isNotFound(err error) bool {
	var nf *services.NotFoundError
	return errors.As(err, &nf)
}
