package scraper

import "time"

// Tab is one of the platform's article feeds a login can browse
// (e.g. "class", "school", "public").
type Tab struct {
	ID   string
	Name string
}

// ArticleSummary is the listing-page view of an article: enough to decide
// whether Discovery should fetch the full body.
type ArticleSummary struct {
	PlatformArticleID string
	Title             string
	AuthorDisplayName string
	PublishedAt       time.Time
	CommentCount      int
}

// Article is the fully fetched article body plus metadata used by
// generation and versioning.
type Article struct {
	PlatformArticleID string
	Title             string
	AuthorDisplayName string
	HTMLContent       string
	TextContent       string
	PublishedAt       time.Time
	EditedAt          *time.Time
}
