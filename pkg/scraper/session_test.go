package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	cfg := config.DefaultRateLimitConfig()
	cfg.PerDomainDelay = 0
	cfg.EvictionInterval = time.Hour
	l := ratelimit.New(cfg)
	t.Cleanup(l.Stop)
	return l
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><head><meta name="csrf-token" content="tok-123"></head></html>`))
			return
		}
		r.ParseForm()
		if r.FormValue("username") == "good" && r.FormValue("password") == "pw" {
			w.Write([]byte(`<html><body>welcome</body></html>`))
			return
		}
		w.Write([]byte(`<html><body>invalid username or password</body></html>`))
	})

	mux.HandleFunc("/articles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<html><body>
			<nav class="article-tabs"><a data-tab-id="class">Class</a></nav>
			<article class="article-card" data-article-id="42">
				<div class="article-title">Hello</div>
				<div class="article-author">Alice</div>
				<time datetime="2026-01-01T00:00:00Z"></time>
				<div class="comment-count">3</div>
			</article>
			</body></html>`))
	})

	mux.HandleFunc("/articles/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<html><body>
			<div class="article-title">Hello</div>
			<div class="article-author">Alice</div>
			<div class="article-meta">
				<time datetime="2026-01-01T00:00:00Z"></time>
				<time class="edited" datetime="2026-01-02T00:00:00Z"></time>
			</div>
			<div class="article-body"><p>Body text</p></div>
			</body></html>`))
	})

	mux.HandleFunc("/articles/42/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="comment" data-comment-id="99"></div></body></html>`))
	})

	return httptest.NewServer(mux)
}

func testSession(t *testing.T, baseURL string) *Session {
	t.Helper()
	cfg := config.DefaultScraperConfig()
	cfg.BaseURL = baseURL
	cfg.RequestTimeout = 5 * time.Second

	s, err := New(cfg, testLimiter(t))
	require.NoError(t, err)
	return s
}

func TestSession_AuthenticateSucceeds(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := testSession(t, srv.URL)
	err := s.Authenticate(context.Background(), "good", "pw")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
}

func TestSession_AuthenticateFailsOnBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := testSession(t, srv.URL)
	err := s.Authenticate(context.Background(), "bad", "wrong")
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

func TestSession_OperationsRequireAuthentication(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := testSession(t, srv.URL)
	_, err := s.ListTabs(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSession_ListArticlesAndFetchArticle(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := testSession(t, srv.URL)
	require.NoError(t, s.Authenticate(context.Background(), "good", "pw"))

	articles, err := s.ListArticles(context.Background(), "class", 1)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "42", articles[0].PlatformArticleID)
	assert.Equal(t, 3, articles[0].CommentCount)

	article, err := s.FetchArticle(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Hello", article.Title)
	assert.Contains(t, article.TextContent, "Body text")
	require.NotNil(t, article.EditedAt)
	assert.Equal(t, 2026, article.EditedAt.Year())
}

func TestSession_PostCommentReturnsCommentID(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := testSession(t, srv.URL)
	require.NoError(t, s.Authenticate(context.Background(), "good", "pw"))

	commentID, err := s.PostComment(context.Background(), "42", "[Dieser Kommentar stammt von einem KI-ChatBot.] Nice work!")
	require.NoError(t, err)
	assert.Equal(t, "99", commentID)
}
