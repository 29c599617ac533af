package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// MymomentYAMLConfig represents the complete mymoment.yaml file structure:
// every system-wide sub-config except per-provider LLM endpoints, which live
// in their own file so they can be rotated independently.
type MymomentYAMLConfig struct {
	Vault        *VaultConfig        `yaml:"vault"`
	RateLimit    *RateLimitConfig    `yaml:"rate_limit"`
	Scraper      *ScraperConfig      `yaml:"scraper"`
	Session      *SessionConfig      `yaml:"session"`
	Orchestrator *OrchestratorConfig `yaml:"orchestrator"`
	Defaults     *Defaults           `yaml:"defaults"`
	Retention    *RetentionConfig    `yaml:"retention"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file
// structure: deployment-wide endpoint overrides keyed by provider type.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]*LLMEndpointConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user-defined configuration onto built-in defaults
//  5. Build the LLM endpoint registry
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully", "llm_providers", stats.LLMProviders)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	mymomentCfg, err := loader.loadMymomentYAML()
	if err != nil {
		return nil, NewLoadError("mymoment.yaml", err)
	}

	llmOverrides, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	vault := DefaultVaultConfig()
	if mymomentCfg.Vault != nil {
		if err := mergo.Merge(vault, mymomentCfg.Vault, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge vault config: %w", err)
		}
	}

	rateLimit := DefaultRateLimitConfig()
	if mymomentCfg.RateLimit != nil {
		if err := mergo.Merge(rateLimit, mymomentCfg.RateLimit, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge rate_limit config: %w", err)
		}
	}

	scraper := DefaultScraperConfig()
	if mymomentCfg.Scraper != nil {
		if err := mergo.Merge(scraper, mymomentCfg.Scraper, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge scraper config: %w", err)
		}
	}

	session := DefaultSessionConfig()
	if mymomentCfg.Session != nil {
		if err := mergo.Merge(session, mymomentCfg.Session, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge session config: %w", err)
		}
	}

	orchestrator := DefaultOrchestratorConfig()
	if mymomentCfg.Orchestrator != nil {
		if err := mergo.Merge(orchestrator, mymomentCfg.Orchestrator, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge orchestrator config: %w", err)
		}
	}

	defaults := DefaultDefaults()
	if mymomentCfg.Defaults != nil {
		if err := mergo.Merge(defaults, mymomentCfg.Defaults, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge defaults: %w", err)
		}
	}

	retention := DefaultRetentionConfig()
	if mymomentCfg.Retention != nil {
		if err := mergo.Merge(retention, mymomentCfg.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	llmEndpoints := NewLLMEndpointRegistry(llmOverrides)

	return &Config{
		configDir:    configDir,
		Vault:        vault,
		RateLimit:    rateLimit,
		Scraper:      scraper,
		Session:      session,
		LLMEndpoints: llmEndpoints,
		Orchestrator: orchestrator,
		Defaults:     defaults,
		Retention:    retention,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand ${VAR} references before parsing so secrets never live in the
	// checked-in YAML itself.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadMymomentYAML() (*MymomentYAMLConfig, error) {
	var cfg MymomentYAMLConfig
	if err := l.loadYAML("mymoment.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]*LLMEndpointConfig, error) {
	var cfg LLMProvidersYAMLConfig
	cfg.LLMProviders = make(map[string]*LLMEndpointConfig)

	if err := l.loadYAML("llm-providers.yaml", &cfg); err != nil {
		return nil, err
	}

	return cfg.LLMProviders, nil
}
