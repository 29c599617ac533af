package orchestrator

import (
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenerationExecutor() *GenerationExecutor {
	return &GenerationExecutor{defaults: config.DefaultDefaults()}
}

func TestNormalizeComment_AddsMissingPrefix(t *testing.T) {
	e := testGenerationExecutor()
	body := "This article raises an interesting point about renewable energy that deserves further exploration in class."

	out, err := e.normalizeComment(body)
	require.NoError(t, err)
	assert.True(t, len(out) > len(body))
	assert.Contains(t, out, e.defaults.AICommentPrefix)
}

func TestNormalizeComment_PrefixAlreadyPresent(t *testing.T) {
	e := testGenerationExecutor()
	body := e.defaults.AICommentPrefix + " This article raises an interesting point that deserves further discussion in the next class session."

	out, err := e.normalizeComment(body)
	require.NoError(t, err)
	// the prefix isn't duplicated
	assert.Equal(t, 1, countOccurrences(out, e.defaults.AICommentPrefix))
}

func TestNormalizeComment_RejectsTooShort(t *testing.T) {
	e := testGenerationExecutor()
	_, err := e.normalizeComment("Too short.")
	assert.Error(t, err)
}

func TestNormalizeComment_RejectsTooLong(t *testing.T) {
	e := testGenerationExecutor()
	long := make([]byte, e.defaults.MaxCommentLength+50)
	for i := range long {
		long[i] = 'a'
	}
	_, err := e.normalizeComment(string(long))
	assert.Error(t, err)
}

func TestNormalizeComment_RejectsLeftoverPlaceholders(t *testing.T) {
	e := testGenerationExecutor()
	body := "This comment still has a {article_title} placeholder that never got substituted by the prompt template engine."
	_, err := e.normalizeComment(body)
	assert.Error(t, err)
}

func TestSubstitutePlaceholders(t *testing.T) {
	content := "full article body"
	category := 3
	publishedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	row := &store.AIComment{
		ArticleTitle:       "My Title",
		ArticleAuthor:      "student1",
		ArticleContent:     &content,
		ArticleCategory:    &category,
		ArticleURL:         "https://example.test/articles/42",
		ArticlePublishedAt: &publishedAt,
	}
	template := "Title: {article_title}, Author: {article_author}, Content: {article_content}, " +
		"Category: {article_category}, Published: {article_published_at}, URL: {article_url}, By: {platform_username}"

	out := substitutePlaceholders(template, row, "student1-login")
	assert.Equal(t,
		"Title: My Title, Author: student1, Content: full article body, "+
			"Category: 3, Published: 2026-01-15T10:00:00Z, URL: https://example.test/articles/42, By: student1-login",
		out)
}

func TestSubstitutePlaceholders_NilFieldsBecomeEmpty(t *testing.T) {
	row := &store.AIComment{ArticleTitle: "T", ArticleAuthor: "A"}
	out := substitutePlaceholders("[{article_content}][{article_category}][{article_published_at}]", row, "")
	assert.Equal(t, "[][][]", out)
}

func TestSubstitutePlaceholders_LeavesUnrecognizedPlaceholdersAlone(t *testing.T) {
	row := &store.AIComment{ArticleTitle: "My Title"}
	out := substitutePlaceholders("{article_title} / {not_a_recognized_field}", row, "")
	assert.Equal(t, "My Title / {not_a_recognized_field}", out)
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
