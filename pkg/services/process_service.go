package services

import (
	"context"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
)

// ProcessService handles MonitoringProcess creation and the login/prompt
// associations a process is built from. Lifecycle transitions
// (start/stop/delete) belong to pkg/orchestrator.Orchestrator, which
// depends on this package's error types but not the reverse.
type ProcessService struct {
	store *store.Store
}

// NewProcessService creates a new ProcessService.
func NewProcessService(st *store.Store) *ProcessService {
	if st == nil {
		panic("NewProcessService: store must not be nil")
	}
	return &ProcessService{store: st}
}

// CreateProcessInput describes a new monitoring process. LoginIDs and
// PromptIDs must reference rows the caller already verified belong to
// UserID — CreateProcess trusts them rather than re-validating ownership
// itself.
type CreateProcessInput struct {
	UserID                 string
	Name                   string
	Description            string
	CategoryFilter         *int
	TaskFilter             *int
	TabFilter              *string
	SearchFilter           *string
	SortOption             *string
	LLMProviderConfigID    string
	MaxDurationMinutes     int
	GenerateOnly           bool
	HideComments           bool
	FallbackToNextProvider bool
	LoginIDs               []string
	PromptIDs              []string
}

// CreateProcess validates and stores a new process in status=created, along
// with its login and prompt-template associations.
func (s *ProcessService) CreateProcess(ctx context.Context, in CreateProcessInput) (*store.MonitoringProcess, error) {
	if in.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if in.Name == "" {
		return nil, NewValidationError("name", "required")
	}
	if in.LLMProviderConfigID == "" {
		return nil, NewValidationError("llm_provider_config_id", "required")
	}
	if in.MaxDurationMinutes <= 0 {
		return nil, NewValidationError("max_duration_minutes", "must be positive")
	}
	if len(in.LoginIDs) == 0 {
		return nil, NewValidationError("login_ids", "at least one login is required")
	}
	if len(in.PromptIDs) == 0 {
		return nil, NewValidationError("prompt_ids", "at least one prompt template is required")
	}

	p := &store.MonitoringProcess{
		UserID:                 in.UserID,
		Name:                   in.Name,
		Description:            in.Description,
		CategoryFilter:         in.CategoryFilter,
		TaskFilter:             in.TaskFilter,
		TabFilter:              in.TabFilter,
		SearchFilter:           in.SearchFilter,
		SortOption:             in.SortOption,
		LLMProviderConfigID:    in.LLMProviderConfigID,
		MaxDurationMinutes:     in.MaxDurationMinutes,
		GenerateOnly:           in.GenerateOnly,
		HideComments:           in.HideComments,
		FallbackToNextProvider: in.FallbackToNextProvider,
		IsActive:               true,
	}
	if err := s.store.CreateMonitoringProcess(ctx, p); err != nil {
		return nil, err
	}

	for _, loginID := range in.LoginIDs {
		if err := s.store.AddProcessLogin(ctx, p.ID, loginID); err != nil {
			return nil, err
		}
	}
	for _, promptID := range in.PromptIDs {
		if err := s.store.AddProcessPrompt(ctx, p.ID, promptID, 1); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// GetProcess fetches a process, enforcing ownership.
func (s *ProcessService) GetProcess(ctx context.Context, userID, processID string) (*store.MonitoringProcess, error) {
	p, err := s.store.GetMonitoringProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, &AccessError{Resource: "monitoring_process", ID: processID}
	}
	return p, nil
}

// AddLogin joins another login to an existing process the caller owns.
func (s *ProcessService) AddLogin(ctx context.Context, userID, processID, loginID string) error {
	if _, err := s.GetProcess(ctx, userID, processID); err != nil {
		return err
	}
	return s.store.AddProcessLogin(ctx, processID, loginID)
}

// AddPrompt joins another prompt template to an existing process the
// caller owns.
func (s *ProcessService) AddPrompt(ctx context.Context, userID, processID, promptID string, weight int) error {
	if _, err := s.GetProcess(ctx, userID, processID); err != nil {
		return err
	}
	return s.store.AddProcessPrompt(ctx, processID, promptID, weight)
}
