package config

import (
	"fmt"
	"sync"
	"time"
)

// LLMEndpointConfig holds deployment-wide settings for one provider type — the
// base URL and call-shaping knobs shared by every user's LLMProviderConfiguration
// of that type. Per-user secrets (API key) and per-user model choice live in the
// database (see pkg/store), never here.
type LLMEndpointConfig struct {
	// Type identifies the provider implementation (required).
	Type LLMProviderType `yaml:"type" validate:"required"`

	// BaseURL overrides the provider's default API base URL.
	BaseURL string `yaml:"base_url,omitempty"`

	// CallTimeout bounds a single generate call. Default 30s.
	CallTimeout time.Duration `yaml:"call_timeout,omitempty"`

	// MinCallInterval is the minimum spacing between calls to this provider,
	// enforced by the Gateway's per-provider last-call-time table. Default 2s.
	MinCallInterval time.Duration `yaml:"min_call_interval,omitempty"`
}

// DefaultLLMEndpoints returns the built-in per-provider endpoint defaults.
func DefaultLLMEndpoints() map[string]*LLMEndpointConfig {
	return map[string]*LLMEndpointConfig{
		string(LLMProviderTypeOpenAI): {
			Type:            LLMProviderTypeOpenAI,
			BaseURL:         "https://api.openai.com/v1",
			CallTimeout:     30 * time.Second,
			MinCallInterval: 2 * time.Second,
		},
		string(LLMProviderTypeMistral): {
			Type:            LLMProviderTypeMistral,
			BaseURL:         "https://api.mistral.ai/v1",
			CallTimeout:     30 * time.Second,
			MinCallInterval: 2 * time.Second,
		},
	}
}

// LLMEndpointRegistry stores per-provider-type endpoint configuration with
// thread-safe access, a small read-mostly registry guarded by a RWMutex.
type LLMEndpointRegistry struct {
	endpoints map[string]*LLMEndpointConfig
	mu        sync.RWMutex
}

// NewLLMEndpointRegistry creates a registry, merging user overrides on top of defaults.
func NewLLMEndpointRegistry(overrides map[string]*LLMEndpointConfig) *LLMEndpointRegistry {
	merged := DefaultLLMEndpoints()
	for name, cfg := range overrides {
		cfgCopy := *cfg
		merged[name] = &cfgCopy
	}
	return &LLMEndpointRegistry{endpoints: merged}
}

// Get retrieves endpoint configuration for a provider type (thread-safe).
func (r *LLMEndpointRegistry) Get(providerType string) (*LLMEndpointConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.endpoints[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, providerType)
	}
	return cfg, nil
}

// GetAll returns a defensive copy of all endpoint configurations.
func (r *LLMEndpointRegistry) GetAll() map[string]*LLMEndpointConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMEndpointConfig, len(r.endpoints))
	for k, v := range r.endpoints {
		result[k] = v
	}
	return result
}
