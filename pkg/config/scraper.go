package config

import "time"

// ScraperConfig controls the platform scraper adapter (C2).
type ScraperConfig struct {
	// BaseURL is the root URL of the monitored platform.
	BaseURL string `yaml:"base_url" validate:"required"`

	// RequestTimeout bounds a single HTTP request to the platform.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	// UserAgent is sent on every outbound request.
	UserAgent string `yaml:"user_agent,omitempty"`

	// MaxArticleBytes caps the size of a fetched article body, guarding
	// against runaway pages.
	MaxArticleBytes int64 `yaml:"max_article_bytes,omitempty"`
}

// DefaultScraperConfig returns the built-in scraper defaults.
func DefaultScraperConfig() *ScraperConfig {
	return &ScraperConfig{
		BaseURL:         "https://www.mymoment.ch",
		RequestTimeout:  30 * time.Second,
		UserAgent:       "mymoment-monitor/1.0",
		MaxArticleBytes: 2 << 20, // 2 MiB
	}
}
