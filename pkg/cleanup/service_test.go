package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	testdb "github.com/codeready-toolchain/mymoment-monitor/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	client := testdb.NewTestClient(t)
	return store.New(client.DB())
}

func seedUserAndProcess(t *testing.T, st *store.Store, ctx context.Context) (*store.User, *store.MonitoringProcess) {
	t.Helper()

	u := &store.User{Email: uuid.NewString() + "@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, st.CreateUser(ctx, u))

	llmCfg := &store.LLMProviderConfiguration{UserID: u.ID, ProviderName: "openai", EncryptedAPIKey: "enc", ModelName: "gpt-4o-mini", IsActive: true}
	require.NoError(t, st.CreateLLMProviderConfiguration(ctx, llmCfg))

	p := &store.MonitoringProcess{UserID: u.ID, Name: "p", LLMProviderConfigID: llmCfg.ID, MaxDurationMinutes: 60, IsActive: true}
	require.NoError(t, st.CreateMonitoringProcess(ctx, p))

	return u, p
}

func TestService_SoftDeletesOldComments(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	u, p := seedUserAndProcess(t, st, ctx)

	prompt := &store.PromptTemplate{Category: "SYSTEM", Name: "t", SystemPrompt: "s", UserPromptTemplate: "u", IsActive: true}
	require.NoError(t, st.CreatePromptTemplate(ctx, prompt))

	comments, err := st.BatchDiscoverArticles(ctx, []*store.AIComment{{
		MymomentArticleID:   "article-1",
		UserID:              u.ID,
		MonitoringProcessID: p.ID,
		PromptTemplateID:    prompt.ID,
		LLMProviderConfigID: p.LLMProviderConfigID,
		ArticleTitle:        "t",
	}})
	require.NoError(t, err)
	require.Len(t, comments, 1)

	require.NoError(t, st.MarkFailed(ctx, comments[0], p.ID, "discovered", "old"))
	_, err = st.ExecContext(ctx, `UPDATE ai_comments SET created_at = now() - interval '400 days' WHERE comment_id = $1`, comments[0])
	require.NoError(t, err)

	cfg := &config.RetentionConfig{CommentRetentionDays: 365, ProcessEventTTL: time.Hour, CleanupInterval: time.Hour}
	svc := NewService(cfg, st)
	svc.runAll(ctx)

	c, err := st.GetAIComment(ctx, comments[0])
	require.NoError(t, err)
	assert.False(t, c.IsActive)
}

func TestService_DeletesOldProcessEvents(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	_, p := seedUserAndProcess(t, st, ctx)

	require.NoError(t, st.InsertProcessEvent(ctx, p.ID, uuid.NewString(), "discovered", "prepared"))
	_, err := st.ExecContext(ctx, `UPDATE process_events SET at = now() - interval '60 days' WHERE process_id = $1`, p.ID)
	require.NoError(t, err)

	cfg := &config.RetentionConfig{CommentRetentionDays: 365, ProcessEventTTL: 30 * 24 * time.Hour, CleanupInterval: time.Hour}
	svc := NewService(cfg, st)
	svc.runAll(ctx)

	events, err := st.ListProcessEventsForProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestService_PreservesRecentData(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	_, p := seedUserAndProcess(t, st, ctx)

	require.NoError(t, st.InsertProcessEvent(ctx, p.ID, uuid.NewString(), "discovered", "prepared"))

	cfg := &config.RetentionConfig{CommentRetentionDays: 365, ProcessEventTTL: 30 * 24 * time.Hour, CleanupInterval: time.Hour}
	svc := NewService(cfg, st)
	svc.runAll(ctx)

	events, err := st.ListProcessEventsForProcess(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
