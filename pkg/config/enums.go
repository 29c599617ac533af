package config

// LLMProviderType identifies a supported LLM provider implementation.
type LLMProviderType string

const (
	// LLMProviderTypeOpenAI is OpenAI's chat completions API.
	LLMProviderTypeOpenAI LLMProviderType = "openai"
	// LLMProviderTypeMistral is Mistral AI's chat completions API.
	LLMProviderTypeMistral LLMProviderType = "mistral"
)

// IsValid reports whether the provider type is recognized.
func (t LLMProviderType) IsValid() bool {
	switch t {
	case LLMProviderTypeOpenAI, LLMProviderTypeMistral:
		return true
	default:
		return false
	}
}

// PromptCategory distinguishes system-owned prompt templates from user-owned ones.
type PromptCategory string

const (
	// PromptCategorySystem templates belong to no user and are available to everyone.
	PromptCategorySystem PromptCategory = "SYSTEM"
	// PromptCategoryUser templates are owned by exactly one user.
	PromptCategoryUser PromptCategory = "USER"
)

// IsValid reports whether the prompt category is recognized.
func (c PromptCategory) IsValid() bool {
	return c == PromptCategorySystem || c == PromptCategoryUser
}

// ProcessStatus is the lifecycle state of a MonitoringProcess.
type ProcessStatus string

const (
	ProcessStatusCreated   ProcessStatus = "created"
	ProcessStatusRunning   ProcessStatus = "running"
	ProcessStatusStopped   ProcessStatus = "stopped"
	ProcessStatusCompleted ProcessStatus = "completed"
	ProcessStatusFailed    ProcessStatus = "failed"
)

// CommentStatus is the lifecycle state of an AIComment row.
type CommentStatus string

const (
	CommentStatusDiscovered CommentStatus = "discovered"
	CommentStatusPrepared   CommentStatus = "prepared"
	CommentStatusGenerated  CommentStatus = "generated"
	CommentStatusPosted     CommentStatus = "posted"
	CommentStatusFailed     CommentStatus = "failed"
	CommentStatusDeleted    CommentStatus = "deleted"
)

// StageName identifies one of the four orchestrator pipeline stages.
type StageName string

const (
	StageDiscovery   StageName = "discovery"
	StagePreparation StageName = "preparation"
	StageGeneration  StageName = "generation"
	StagePosting     StageName = "posting"
)

// Stages lists the pipeline stages in execution order.
var Stages = []StageName{StageDiscovery, StagePreparation, StageGeneration, StagePosting}
