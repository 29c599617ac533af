package llm

import "errors"

var (
	// ErrProviderNotConfigured indicates the gateway was asked to use a
	// provider type with no endpoint configuration.
	ErrProviderNotConfigured = errors.New("llm: provider not configured")

	// ErrEmptyResponse indicates the provider returned a response with no
	// usable comment content.
	ErrEmptyResponse = errors.New("llm: empty response content")
)

// LLMError wraps a single provider call failure (network error, non-2xx
// status, or malformed response body) with the provider name for logging.
type LLMError struct {
	Provider string
	Err      error
}

func (e *LLMError) Error() string {
	return "llm: " + e.Provider + ": " + e.Err.Error()
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// ProviderExhaustionError is returned by Generate when every configured
// provider in the fallback chain failed.
type ProviderExhaustionError struct {
	Attempts []*LLMError
}

func (e *ProviderExhaustionError) Error() string {
	return "llm: all providers exhausted"
}

func (e *ProviderExhaustionError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}
