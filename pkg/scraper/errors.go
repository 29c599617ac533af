package scraper

import "errors"

var (
	// ErrNotAuthenticated indicates an operation requiring an authenticated
	// session was attempted before Authenticate succeeded.
	ErrNotAuthenticated = errors.New("scraper: session not authenticated")

	// ErrAuthenticationFailed indicates the platform rejected the supplied
	// credentials.
	ErrAuthenticationFailed = errors.New("scraper: authentication failed")

	// ErrCSRFTokenNotFound indicates the login or comment form did not carry
	// the CSRF token the platform requires on state-changing requests.
	ErrCSRFTokenNotFound = errors.New("scraper: CSRF token not found")

	// ErrArticleNotFound indicates the requested article id does not exist
	// or is no longer visible to this login.
	ErrArticleNotFound = errors.New("scraper: article not found")

	// ErrArticleTooLarge indicates a fetched article body exceeded
	// ScraperConfig.MaxArticleBytes.
	ErrArticleTooLarge = errors.New("scraper: article body exceeds maximum size")
)

// ScrapingError wraps a failed platform interaction with enough context to
// decide whether the session needs re-authentication (401/403) or the
// call should simply be retried.
type ScrapingError struct {
	Op         string // "authenticate", "list_tabs", "list_articles", "fetch_article", "post_comment"
	StatusCode int
	Err        error
}

func (e *ScrapingError) Error() string {
	return "scraper: " + e.Op + ": " + e.Err.Error()
}

func (e *ScrapingError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the platform responded with a status that
// means the session's cookies are no longer valid.
func (e *ScrapingError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
