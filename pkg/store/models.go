package store

import "time"

// User mirrors ent/schema/user.go.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlatformLogin mirrors ent/schema/platformlogin.go. Username/Password are
// still vault-encrypted here; callers decrypt via pkg/vault immediately
// before use and never persist the plaintext.
type PlatformLogin struct {
	ID                string
	UserID            string
	Name              string
	EncryptedUsername string
	EncryptedPassword string
	IsAdmin           bool
	IsActive          bool
	LastUsed          *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PlatformSession mirrors ent/schema/platformsession.go.
type PlatformSession struct {
	ID                   string
	LoginID              string
	EncryptedSessionBlob string
	ExpiresAt            time.Time
	IsActive             bool
	LastAccessed         time.Time
	CreatedAt            time.Time
}

// LLMProviderConfiguration mirrors ent/schema/llmproviderconfiguration.go.
type LLMProviderConfiguration struct {
	ID              string
	UserID          string
	ProviderName    string
	EncryptedAPIKey string
	ModelName       string
	MaxTokens       *int
	Temperature     *float64
	IsActive        bool
	LastUsed        *time.Time
	CreatedAt       time.Time
}

// PromptTemplate mirrors ent/schema/prompttemplate.go.
type PromptTemplate struct {
	ID                 string
	UserID              *string // nil for SYSTEM templates
	Category            string  // "SYSTEM" | "USER"
	Name                string
	SystemPrompt        string
	UserPromptTemplate  string
	IsActive            bool
	CreatedAt           time.Time
}

// MonitoringProcess mirrors ent/schema/monitoringprocess.go.
type MonitoringProcess struct {
	ID                              string
	UserID                          string
	Name                            string
	Description                    string
	CategoryFilter                 *int
	TaskFilter                     *int
	TabFilter                      *string
	SearchFilter                   *string
	SortOption                     *string
	LLMProviderConfigID            string
	MaxDurationMinutes             int
	GenerateOnly                   bool
	HideComments                   bool
	FallbackToNextProvider         bool
	Status                         string
	IsActive                       bool
	StartedAt                      *time.Time
	StoppedAt                      *time.Time
	LastActivityAt                 *time.Time
	DiscoveryTaskID                *string
	PreparationTaskID              *string
	GenerationTaskID               *string
	PostingTaskID                  *string
	ArticlesDiscovered             int
	ArticlesPrepared               int
	CommentsGenerated              int
	CommentsPosted                 int
	ErrorsEncounteredInDiscovery   int
	ErrorsEncounteredInPreparation int
	ErrorsEncounteredInGeneration  int
	ErrorsEncounteredInPosting     int
	CreatedAt                      time.Time
	UpdatedAt                      time.Time
}

// ProcessLogin is the process<->login join row.
type ProcessLogin struct {
	ID       string
	ProcessID string
	LoginID   string
	IsActive  bool
}

// ProcessPrompt is the process<->prompt-template join row.
type ProcessPrompt struct {
	ID               string
	ProcessID        string
	PromptTemplateID string
	IsActive         bool
	Weight           int
}

// AIComment mirrors ent/schema/aicomment.go, the pipeline's unit of work.
type AIComment struct {
	ID                   string
	MymomentArticleID    string
	MymomentCommentID    *string
	UserID               string
	LoginID              *string
	MonitoringProcessID  string
	PromptTemplateID     string
	LLMProviderConfigID  string

	ArticleTitle        string
	ArticleAuthor       string
	ArticleCategory     *int
	ArticleURL          string
	ArticleContent      *string
	ArticleRawHTML      *string
	ArticlePublishedAt  *time.Time
	ArticleEditedAt     *time.Time
	ArticleTaskID       *int
	ArticleScrapedAt    *time.Time

	CommentContent    *string
	AIModelName       string
	AIProviderName    string
	GenerationTokens  *int
	GenerationTimeMs  *int

	Status       string
	CreatedAt    time.Time
	PostedAt     *time.Time
	FailedAt     *time.Time
	ErrorMessage *string
	RetryCount   int
	IsActive     bool
	IsHidden     bool
}

// TrackedStudent mirrors ent/schema/trackedstudent.go.
type TrackedStudent struct {
	ID                  string
	UserID              string
	AdminLoginID        string
	MymomentUsername    string
	ContentChangesOnly  bool
	LastBackupAt        *time.Time
	CreatedAt           time.Time
}

// ArticleVersion mirrors ent/schema/articleversion.go.
type ArticleVersion struct {
	ID               string
	TrackedStudentID string
	MymomentArticleID string
	VersionNumber    int
	ContentHash      string
	Title            string
	Content          string
	RawHTML          string
	IsActive         bool
	CreatedAt        time.Time
}

// StageTask mirrors ent/schema/stagetask.go, the orchestrator's
// Postgres-table-backed named-queue row.
type StageTask struct {
	ID           string
	ProcessID    string
	Stage        string
	Status       string
	ClaimedBy    *string
	ClaimedAt    *time.Time
	HeartbeatAt  *time.Time
	CompletedAt  *time.Time
	ErrorMessage *string
	CreatedAt    time.Time
}

// QueueStats summarizes one stage's queue depth for the CLI's
// celery-compatibility shim.
type QueueStats struct {
	Queued  int
	Claimed int
}

// ProcessEvent mirrors ent/schema/processevent.go, the append-only audit
// trail of AIComment status transitions.
type ProcessEvent struct {
	ID         string
	ProcessID  string
	CommentID  string
	FromStatus string
	ToStatus   string
	At         time.Time
}
