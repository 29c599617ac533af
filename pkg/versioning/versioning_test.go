package versioning

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/services"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for pkg/store's versioning methods,
// keyed by (trackedStudentID, articleID).
type fakeStore struct {
	versions map[string][]*store.ArticleVersion
	backups  map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		versions: make(map[string][]*store.ArticleVersion),
		backups:  make(map[string]time.Time),
	}
}

func key(trackedStudentID, articleID string) string { return trackedStudentID + "/" + articleID }

func (f *fakeStore) active(k string) []*store.ArticleVersion {
	var out []*store.ArticleVersion
	for _, v := range f.versions[k] {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeStore) LatestActiveArticleVersion(ctx context.Context, trackedStudentID, articleID string) (*store.ArticleVersion, error) {
	active := f.active(key(trackedStudentID, articleID))
	if len(active) == 0 {
		return nil, services.NewNotFoundError("article_version", articleID)
	}
	latest := active[0]
	for _, v := range active {
		if v.VersionNumber > latest.VersionNumber {
			latest = v
		}
	}
	return latest, nil
}

func (f *fakeStore) NextVersionNumber(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) (int, error) {
	max := 0
	for _, v := range f.versions[key(trackedStudentID, articleID)] {
		if v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max + 1, nil
}

func (f *fakeStore) CountActiveVersions(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) (int, error) {
	return len(f.active(key(trackedStudentID, articleID))), nil
}

func (f *fakeStore) SoftDeleteOldestVersion(ctx context.Context, tx *sql.Tx, trackedStudentID, articleID string) error {
	active := f.active(key(trackedStudentID, articleID))
	if len(active) == 0 {
		return nil
	}
	oldest := active[0]
	for _, v := range active {
		if v.VersionNumber < oldest.VersionNumber {
			oldest = v
		}
	}
	oldest.IsActive = false
	return nil
}

func (f *fakeStore) InsertArticleVersion(ctx context.Context, tx *sql.Tx, v *store.ArticleVersion) error {
	v.IsActive = true
	k := key(v.TrackedStudentID, v.MymomentArticleID)
	f.versions[k] = append(f.versions[k], v)
	return nil
}

func (f *fakeStore) TouchTrackedStudentBackup(ctx context.Context, tx *sql.Tx, id string, at time.Time) error {
	f.backups[id] = at
	return nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

func TestVersioner_FirstSnapshotCreatesVersionOne(t *testing.T) {
	fs := newFakeStore()
	v := New(fs, config.DefaultRetentionConfig())

	res, err := v.CreateVersion(context.Background(), "student-1", ArticleSnapshot{
		ArticleID: "article-1", Title: "t", Content: "hello world",
	}, true)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.VersionNumber)
	assert.False(t, res.Evicted)
}

func TestVersioner_UnchangedContentDoesNotCreateNewVersion(t *testing.T) {
	fs := newFakeStore()
	v := New(fs, config.DefaultRetentionConfig())
	ctx := context.Background()

	_, err := v.CreateVersion(ctx, "student-1", ArticleSnapshot{ArticleID: "article-1", Content: "hello world"}, true)
	require.NoError(t, err)

	res, err := v.CreateVersion(ctx, "student-1", ArticleSnapshot{ArticleID: "article-1", Content: "hello world"}, true)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.VersionNumber)
	assert.Len(t, fs.active(key("student-1", "article-1")), 1)
}

func TestVersioner_WithoutContentChangesOnlyAlwaysCreatesNewVersion(t *testing.T) {
	fs := newFakeStore()
	v := New(fs, config.DefaultRetentionConfig())
	ctx := context.Background()

	_, err := v.CreateVersion(ctx, "student-1", ArticleSnapshot{ArticleID: "article-1", Content: "hello world"}, false)
	require.NoError(t, err)

	res, err := v.CreateVersion(ctx, "student-1", ArticleSnapshot{ArticleID: "article-1", Content: "hello world"}, false)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 2, res.VersionNumber)
	assert.Len(t, fs.active(key("student-1", "article-1")), 2)
}

func TestVersioner_ChangedContentCreatesNewVersion(t *testing.T) {
	fs := newFakeStore()
	v := New(fs, config.DefaultRetentionConfig())
	ctx := context.Background()

	_, err := v.CreateVersion(ctx, "student-1", ArticleSnapshot{ArticleID: "article-1", Content: "v1"}, true)
	require.NoError(t, err)

	res, err := v.CreateVersion(ctx, "student-1", ArticleSnapshot{ArticleID: "article-1", Content: "v2"}, true)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 2, res.VersionNumber)
	assert.Len(t, fs.active(key("student-1", "article-1")), 2)
}

func TestVersioner_EvictsOldestWhenCapExceeded(t *testing.T) {
	fs := newFakeStore()
	retention := config.DefaultRetentionConfig()
	retention.MaxVersionsPerStudent = 2
	v := New(fs, retention)
	ctx := context.Background()

	for i, content := range []string{"v1", "v2", "v3"} {
		res, err := v.CreateVersion(ctx, "student-1", ArticleSnapshot{ArticleID: "article-1", Content: content}, true)
		require.NoError(t, err)
		if i == 2 {
			assert.True(t, res.Evicted)
		}
	}

	active := fs.active(key("student-1", "article-1"))
	assert.Len(t, active, 2)
	for _, a := range active {
		assert.NotEqual(t, "v1", a.Content, "oldest version should have been soft-deleted")
	}
}
