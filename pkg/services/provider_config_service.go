package services

import (
	"context"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/vault"
)

// ProviderConfigService manages a user's LLM provider configurations,
// sealing API keys through the vault the same way LoginService seals
// platform credentials.
type ProviderConfigService struct {
	store *store.Store
	vault *vault.Vault
}

// NewProviderConfigService creates a new ProviderConfigService.
func NewProviderConfigService(st *store.Store, v *vault.Vault) *ProviderConfigService {
	if st == nil {
		panic("NewProviderConfigService: store must not be nil")
	}
	if v == nil {
		panic("NewProviderConfigService: vault must not be nil")
	}
	return &ProviderConfigService{store: st, vault: v}
}

// CreateProviderConfigInput is the plaintext form of a new configuration.
type CreateProviderConfigInput struct {
	UserID      string
	Provider    config.LLMProviderType
	APIKey      string
	Model       string
	MaxTokens   *int
	Temperature *float64
}

// CreateProviderConfig encrypts and stores a new LLM provider configuration.
func (s *ProviderConfigService) CreateProviderConfig(ctx context.Context, in CreateProviderConfigInput) (*store.LLMProviderConfiguration, error) {
	if in.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if in.Provider == "" {
		return nil, NewValidationError("provider", "required")
	}
	if in.APIKey == "" {
		return nil, NewValidationError("api_key", "required")
	}
	if in.Model == "" {
		return nil, NewValidationError("model", "required")
	}

	encKey, err := s.vault.EncryptString(in.APIKey)
	if err != nil {
		return nil, &CryptoError{Op: "encrypt llm provider api key", Err: err}
	}

	cfg := &store.LLMProviderConfiguration{
		UserID:          in.UserID,
		ProviderName:    string(in.Provider),
		EncryptedAPIKey: encKey,
		ModelName:       in.Model,
		MaxTokens:       in.MaxTokens,
		Temperature:     in.Temperature,
		IsActive:        true,
	}
	if err := s.store.CreateLLMProviderConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetProviderConfig fetches a configuration, enforcing ownership.
func (s *ProviderConfigService) GetProviderConfig(ctx context.Context, userID, id string) (*store.LLMProviderConfiguration, error) {
	cfg, err := s.store.GetLLMProviderConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg.UserID != userID {
		return nil, &AccessError{Resource: "llm_provider_configuration", ID: id}
	}
	return cfg, nil
}

// ListProviderConfigs returns a user's active provider configurations.
func (s *ProviderConfigService) ListProviderConfigs(ctx context.Context, userID string) ([]*store.LLMProviderConfiguration, error) {
	return s.store.ListActiveLLMProviderConfigurationsForUser(ctx, userID)
}
