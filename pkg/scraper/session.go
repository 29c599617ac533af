// Package scraper implements the platform scraper adapter (C2): a stateful
// HTTP session against the monitored platform that authenticates, lists
// tabs and articles, fetches article content, and posts comments, all
// through HTML scraping with goquery since the platform exposes no API.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/ratelimit"
)

// Session is one authenticated browsing session against the platform. It
// is not safe for concurrent use by itself — callers serialize access per
// login, which pkg/session (C3) enforces with a per-login mutex.
type Session struct {
	cfg     *config.ScraperConfig
	limiter *ratelimit.Limiter

	mu            sync.Mutex
	client        *http.Client
	csrfToken     string
	authenticated bool
	username      string
}

// New builds an unauthenticated Session ready for Authenticate.
func New(cfg *config.ScraperConfig, limiter *ratelimit.Limiter) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: create cookie jar: %w", err)
	}

	return &Session{
		cfg:     cfg,
		limiter: limiter,
		client: &http.Client{
			Jar:     jar,
			Timeout: cfg.RequestTimeout,
		},
	}, nil
}

// IsAuthenticated reports whether the session currently believes its
// cookies are valid. It is cleared on a 401/403 response from any operation.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Authenticate logs in with the given credentials, extracting the CSRF
// token the platform embeds in the login form and capturing session cookies
// via the client's cookiejar.
func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	if err := s.limiter.WaitForDomain(ctx, s.domain()); err != nil {
		return err
	}

	loginPageURL := s.cfg.BaseURL + "/login"
	doc, _, err := s.getDocument(ctx, loginPageURL)
	if err != nil {
		return &ScrapingError{Op: "authenticate", Err: err}
	}

	token, ok := extractCSRFToken(doc)
	if !ok {
		return &ScrapingError{Op: "authenticate", Err: ErrCSRFTokenNotFound}
	}

	form := url.Values{
		"username":           {username},
		"password":           {password},
		"csrf_token":         {token},
		"authenticity_token": {token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginPageURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &ScrapingError{Op: "authenticate", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return &ScrapingError{Op: "authenticate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &ScrapingError{Op: "authenticate", StatusCode: resp.StatusCode, Err: ErrAuthenticationFailed}
	}
	if resp.StatusCode >= 400 {
		return &ScrapingError{Op: "authenticate", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxArticleBytes))
	if err != nil {
		return &ScrapingError{Op: "authenticate", Err: err}
	}
	if looksLikeLoginFailure(body) {
		return &ScrapingError{Op: "authenticate", Err: ErrAuthenticationFailed}
	}

	s.mu.Lock()
	s.authenticated = true
	s.username = username
	s.csrfToken = token
	s.mu.Unlock()

	return nil
}

// ListTabs returns the feeds available to the authenticated login.
func (s *Session) ListTabs(ctx context.Context) ([]Tab, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := s.limiter.WaitForDomain(ctx, s.domain()); err != nil {
		return nil, err
	}

	doc, status, err := s.getDocument(ctx, s.cfg.BaseURL+"/articles")
	if err != nil {
		return nil, &ScrapingError{Op: "list_tabs", Err: err}
	}
	if s.handleAuthStatus(status) {
		return nil, &ScrapingError{Op: "list_tabs", StatusCode: status, Err: ErrNotAuthenticated}
	}

	var tabs []Tab
	doc.Find("nav.article-tabs a[data-tab-id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("data-tab-id")
		tabs = append(tabs, Tab{ID: id, Name: strings.TrimSpace(sel.Text())})
	})

	return tabs, nil
}

// ListArticles returns the article summaries on one page of a tab.
func (s *Session) ListArticles(ctx context.Context, tabID string, page int) ([]ArticleSummary, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := s.limiter.WaitForDomain(ctx, s.domain()); err != nil {
		return nil, err
	}

	listURL := fmt.Sprintf("%s/articles?tab=%s&page=%d", s.cfg.BaseURL, url.QueryEscape(tabID), page)
	doc, status, err := s.getDocument(ctx, listURL)
	if err != nil {
		return nil, &ScrapingError{Op: "list_articles", Err: err}
	}
	if s.handleAuthStatus(status) {
		return nil, &ScrapingError{Op: "list_articles", StatusCode: status, Err: ErrNotAuthenticated}
	}

	var summaries []ArticleSummary
	doc.Find("article.article-card").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("data-article-id")
		publishedAt, _ := time.Parse(time.RFC3339, sel.Find("time").AttrOr("datetime", ""))
		commentCount, _ := strconv.Atoi(strings.TrimSpace(sel.Find(".comment-count").Text()))

		summaries = append(summaries, ArticleSummary{
			PlatformArticleID: id,
			Title:             strings.TrimSpace(sel.Find(".article-title").Text()),
			AuthorDisplayName: strings.TrimSpace(sel.Find(".article-author").Text()),
			PublishedAt:       publishedAt,
			CommentCount:      commentCount,
		})
	})

	return summaries, nil
}

// FetchArticle retrieves the full content of one article.
func (s *Session) FetchArticle(ctx context.Context, articleID string) (*Article, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := s.limiter.WaitForDomain(ctx, s.domain()); err != nil {
		return nil, err
	}

	articleURL := fmt.Sprintf("%s/articles/%s", s.cfg.BaseURL, url.PathEscape(articleID))
	doc, status, err := s.getDocument(ctx, articleURL)
	if err != nil {
		return nil, &ScrapingError{Op: "fetch_article", Err: err}
	}
	if status == http.StatusNotFound {
		return nil, &ScrapingError{Op: "fetch_article", StatusCode: status, Err: ErrArticleNotFound}
	}
	if s.handleAuthStatus(status) {
		return nil, &ScrapingError{Op: "fetch_article", StatusCode: status, Err: ErrNotAuthenticated}
	}

	body := doc.Find(".article-body")
	htmlContent, err := body.Html()
	if err != nil {
		return nil, &ScrapingError{Op: "fetch_article", Err: err}
	}
	publishedAt, _ := time.Parse(time.RFC3339, doc.Find(".article-meta time").AttrOr("datetime", ""))

	var editedAt *time.Time
	if v, ok := doc.Find(".article-meta time.edited").Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			editedAt = &t
		}
	}

	return &Article{
		PlatformArticleID: articleID,
		Title:             strings.TrimSpace(doc.Find(".article-title").First().Text()),
		AuthorDisplayName: strings.TrimSpace(doc.Find(".article-author").First().Text()),
		HTMLContent:       htmlContent,
		TextContent:       strings.TrimSpace(body.Text()),
		PublishedAt:       publishedAt,
		EditedAt:          editedAt,
	}, nil
}

// PostComment submits a comment on an article. Returns the platform-assigned
// comment id on success.
func (s *Session) PostComment(ctx context.Context, articleID, content string) (string, error) {
	if !s.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	if err := s.limiter.WaitForDomain(ctx, s.domain()); err != nil {
		return "", err
	}

	s.mu.Lock()
	token := s.csrfToken
	s.mu.Unlock()

	form := url.Values{
		"content":    {content},
		"csrf_token": {token},
	}

	commentURL := fmt.Sprintf("%s/articles/%s/comments", s.cfg.BaseURL, url.PathEscape(articleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, commentURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &ScrapingError{Op: "post_comment", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &ScrapingError{Op: "post_comment", Err: err}
	}
	defer resp.Body.Close()

	if s.handleAuthStatus(resp.StatusCode) {
		return "", &ScrapingError{Op: "post_comment", StatusCode: resp.StatusCode, Err: ErrNotAuthenticated}
	}
	if resp.StatusCode >= 400 {
		return "", &ScrapingError{Op: "post_comment", StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.cfg.MaxArticleBytes))
	if err != nil {
		return "", &ScrapingError{Op: "post_comment", Err: err}
	}

	commentID, _ := doc.Find(".comment[data-comment-id]").First().Attr("data-comment-id")
	return commentID, nil
}

// Close releases the session's underlying connections. The scraper doesn't
// own a persistent connection beyond the http.Client's pool, so Close is a
// no-op kept for symmetry with session lifecycle callers (C3 treats every
// adapter the same way regardless of transport).
func (s *Session) Close() {}

func (s *Session) domain() string {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return s.cfg.BaseURL
	}
	return u.Host
}

// handleAuthStatus clears authenticated state and reports true when status
// indicates the session's cookies are no longer valid.
func (s *Session) handleAuthStatus(status int) bool {
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return false
	}
	s.mu.Lock()
	s.authenticated = false
	s.mu.Unlock()
	return true
}

func (s *Session) getDocument(ctx context.Context, target string) (*goquery.Document, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.cfg.MaxArticleBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return doc, resp.StatusCode, nil
}

func extractCSRFToken(doc *goquery.Document) (string, bool) {
	if token, ok := doc.Find("meta[name=csrf-token]").Attr("content"); ok && token != "" {
		return token, true
	}
	if token, ok := doc.Find("input[name=csrf_token]").Attr("value"); ok && token != "" {
		return token, true
	}
	return "", false
}

func looksLikeLoginFailure(body []byte) bool {
	return strings.Contains(strings.ToLower(string(body)), "invalid username or password")
}
