package services

import (
	"context"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// PromptService manages PromptTemplate rows: SYSTEM templates are shared
// across all users (UserID nil), USER templates belong to one.
type PromptService struct {
	store *store.Store
}

// NewPromptService creates a new PromptService.
func NewPromptService(st *store.Store) *PromptService {
	if st == nil {
		panic("NewPromptService: store must not be nil")
	}
	return &PromptService{store: st}
}

// CreatePromptInput describes a new prompt template.
type CreatePromptInput struct {
	UserID             *string // nil for a SYSTEM template
	Category           string  // "SYSTEM" | "USER"
	Name               string
	SystemPrompt       string
	UserPromptTemplate string
}

// CreatePrompt validates and stores a new prompt template.
func (s *PromptService) CreatePrompt(ctx context.Context, in CreatePromptInput) (*store.PromptTemplate, error) {
	if in.Name == "" {
		return nil, NewValidationError("name", "required")
	}
	if in.Category != "SYSTEM" && in.Category != "USER" {
		return nil, NewValidationError("category", "must be SYSTEM or USER")
	}
	if in.Category == "USER" && in.UserID == nil {
		return nil, NewValidationError("user_id", "required for USER-category prompts")
	}
	if in.UserPromptTemplate == "" {
		return nil, NewValidationError("user_prompt_template", "required")
	}

	p := &store.PromptTemplate{
		UserID:             in.UserID,
		Category:           in.Category,
		Name:               in.Name,
		SystemPrompt:       in.SystemPrompt,
		UserPromptTemplate: in.UserPromptTemplate,
		IsActive:           true,
	}
	if err := s.store.CreatePromptTemplate(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPrompt fetches a prompt template, enforcing that USER-category
// templates belong to userID; SYSTEM templates are readable by anyone.
func (s *PromptService) GetPrompt(ctx context.Context, userID, id string) (*store.PromptTemplate, error) {
	p, err := s.store.GetPromptTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Category == "USER" && (p.UserID == nil || *p.UserID != userID) {
		return nil, &AccessError{Resource: "prompt_template", ID: id}
	}
	return p, nil
}
