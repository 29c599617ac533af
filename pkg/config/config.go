package config

// Config is the umbrella configuration object assembled by Initialize and
// threaded through the application: the credential vault, rate limiter,
// scraper, session manager, LLM endpoint registry, orchestrator, system
// defaults, and retention policy.
type Config struct {
	configDir string // configuration directory path (for reference)

	Vault         *VaultConfig
	RateLimit     *RateLimitConfig
	Scraper       *ScraperConfig
	Session       *SessionConfig
	LLMEndpoints  *LLMEndpointRegistry
	Orchestrator  *OrchestratorConfig
	Defaults      *Defaults
	Retention     *RetentionConfig
}

// Initialize is defined in loader.go.

// ConfigStats contains statistics about loaded configuration, surfaced in
// startup logs.
type ConfigStats struct {
	LLMProviders int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		LLMProviders: len(c.LLMEndpoints.GetAll()),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetLLMEndpoint retrieves deployment-wide endpoint configuration for a
// provider type. Convenience wrapper around LLMEndpoints.Get.
func (c *Config) GetLLMEndpoint(providerType string) (*LLMEndpointConfig, error) {
	return c.LLMEndpoints.Get(providerType)
}
