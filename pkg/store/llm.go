package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// CreateLLMProviderConfiguration inserts a new per-user provider config.
func (s *Store) CreateLLMProviderConfiguration(ctx context.Context, c *LLMProviderConfiguration) error {
	c.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_provider_configurations
			(provider_config_id, user_id, provider_name, encrypted_api_key, model_name, max_tokens, temperature, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.UserID, c.ProviderName, c.EncryptedAPIKey, c.ModelName, c.MaxTokens, c.Temperature, c.IsActive)
	return translate(err, "llm_provider_configuration", c.ID)
}

// GetLLMProviderConfiguration fetches one provider configuration by id.
func (s *Store) GetLLMProviderConfiguration(ctx context.Context, id string) (*LLMProviderConfiguration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT provider_config_id, user_id, provider_name, encrypted_api_key, model_name, max_tokens, temperature, is_active, last_used, created_at
		FROM llm_provider_configurations WHERE provider_config_id = $1`, id)
	return scanLLMProviderConfiguration(row, id)
}

// ListActiveLLMProviderConfigurationsForUser returns every active provider
// configuration for a user, used to build the Generation stage's fallback
// chain (preferred provider first, handled by the caller).
func (s *Store) ListActiveLLMProviderConfigurationsForUser(ctx context.Context, userID string) ([]*LLMProviderConfiguration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider_config_id, user_id, provider_name, encrypted_api_key, model_name, max_tokens, temperature, is_active, last_used, created_at
		FROM llm_provider_configurations WHERE user_id = $1 AND is_active = TRUE`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LLMProviderConfiguration
	for rows.Next() {
		var c LLMProviderConfiguration
		if err := scanLLMProviderConfigurationRow(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLLMProviderConfigurationRow(r rowScanner, c *LLMProviderConfiguration) error {
	return r.Scan(&c.ID, &c.UserID, &c.ProviderName, &c.EncryptedAPIKey, &c.ModelName,
		&c.MaxTokens, &c.Temperature, &c.IsActive, &c.LastUsed, &c.CreatedAt)
}

func scanLLMProviderConfiguration(row *sql.Row, id string) (*LLMProviderConfiguration, error) {
	var c LLMProviderConfiguration
	if err := scanLLMProviderConfigurationRow(row, &c); err != nil {
		return nil, translate(err, "llm_provider_configuration", id)
	}
	return &c, nil
}

// TouchLLMProviderLastUsed records the time a provider config was last
// used for a successful generation call.
func (s *Store) TouchLLMProviderLastUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE llm_provider_configurations SET last_used = now() WHERE provider_config_id = $1`, id)
	return err
}

// CreatePromptTemplate inserts a SYSTEM (UserID nil) or USER prompt template.
func (s *Store) CreatePromptTemplate(ctx context.Context, p *PromptTemplate) error {
	p.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompt_templates (prompt_template_id, user_id, category, name, system_prompt, user_prompt_template, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.Category, p.Name, p.SystemPrompt, p.UserPromptTemplate, p.IsActive)
	return translate(err, "prompt_template", p.ID)
}

// GetPromptTemplate fetches one prompt template by id.
func (s *Store) GetPromptTemplate(ctx context.Context, id string) (*PromptTemplate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT prompt_template_id, user_id, category, name, system_prompt, user_prompt_template, is_active, created_at
		FROM prompt_templates WHERE prompt_template_id = $1`, id)

	var p PromptTemplate
	err := row.Scan(&p.ID, &p.UserID, &p.Category, &p.Name, &p.SystemPrompt, &p.UserPromptTemplate, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, translate(err, "prompt_template", id)
	}
	return &p, nil
}

// ListPromptTemplatesByIDs fetches a batch of prompt templates (the set
// referenced by a MonitoringProcess's config snapshot).
func (s *Store) ListPromptTemplatesByIDs(ctx context.Context, ids []string) ([]*PromptTemplate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT prompt_template_id, user_id, category, name, system_prompt, user_prompt_template, is_active, created_at
		FROM prompt_templates WHERE prompt_template_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PromptTemplate
	for rows.Next() {
		var p PromptTemplate
		if err := rows.Scan(&p.ID, &p.UserID, &p.Category, &p.Name, &p.SystemPrompt, &p.UserPromptTemplate, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
