package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/store"
	"github.com/codeready-toolchain/mymoment-monitor/pkg/vault"
	testdb "github.com/codeready-toolchain/mymoment-monitor/test/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New(&config.VaultConfig{
		KeyFile:       filepath.Join(t.TempDir(), "vault.key"),
		AllowGenerate: true,
	})
	require.NoError(t, err)
	return v
}

func testUser(t *testing.T, st *store.Store, ctx context.Context) *store.User {
	t.Helper()
	u := &store.User{Email: uuid.NewString() + "@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, st.CreateUser(ctx, u))
	return u
}

func TestLoginService_CreateAndGet(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)

	svc := NewLoginService(st, testVault(t))
	login, err := svc.CreateLogin(ctx, CreateLoginInput{UserID: u.ID, Name: "main", Username: "student1", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.ID)
	assert.NotEqual(t, "student1", login.EncryptedUsername)

	got, err := svc.GetLogin(ctx, u.ID, login.ID)
	require.NoError(t, err)
	assert.Equal(t, login.ID, got.ID)

	_, err = svc.GetLogin(ctx, "someone-else", login.ID)
	assert.Error(t, err)
	var accessErr *AccessError
	assert.ErrorAs(t, err, &accessErr)
}

func TestLoginService_CreateLogin_RequiresCredentials(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)

	svc := NewLoginService(st, testVault(t))
	_, err := svc.CreateLogin(ctx, CreateLoginInput{UserID: u.ID, Name: "main"})
	assert.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestLoginService_DeleteLogin(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)

	svc := NewLoginService(st, testVault(t))
	login, err := svc.CreateLogin(ctx, CreateLoginInput{UserID: u.ID, Name: "main", Username: "s", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLogin(ctx, u.ID, login.ID))

	logins, err := svc.ListLogins(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, logins)
}

func TestProviderConfigService_CreateAndList(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)

	svc := NewProviderConfigService(st, testVault(t))
	cfg, err := svc.CreateProviderConfig(ctx, CreateProviderConfigInput{
		UserID: u.ID, Provider: config.LLMProviderTypeOpenAI, APIKey: "sk-test", Model: "gpt-4o-mini",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "sk-test", cfg.EncryptedAPIKey)

	configs, err := svc.ListProviderConfigs(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, configs, 1)
}

func TestProcessService_CreateProcess_RequiresLoginsAndPrompts(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)

	llmSvc := NewProviderConfigService(st, testVault(t))
	cfg, err := llmSvc.CreateProviderConfig(ctx, CreateProviderConfigInput{
		UserID: u.ID, Provider: config.LLMProviderTypeOpenAI, APIKey: "sk-test", Model: "gpt-4o-mini",
	})
	require.NoError(t, err)

	svc := NewProcessService(st)
	_, err = svc.CreateProcess(ctx, CreateProcessInput{
		UserID: u.ID, Name: "p", LLMProviderConfigID: cfg.ID, MaxDurationMinutes: 60,
	})
	assert.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestProcessService_CreateProcess_Succeeds(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)
	v := testVault(t)

	loginSvc := NewLoginService(st, v)
	login, err := loginSvc.CreateLogin(ctx, CreateLoginInput{UserID: u.ID, Name: "main", Username: "s", Password: "p"})
	require.NoError(t, err)

	promptSvc := NewPromptService(st)
	prompt, err := promptSvc.CreatePrompt(ctx, CreatePromptInput{Category: "SYSTEM", Name: "default", SystemPrompt: "sys", UserPromptTemplate: "{{article_content}}"})
	require.NoError(t, err)

	llmSvc := NewProviderConfigService(st, v)
	cfg, err := llmSvc.CreateProviderConfig(ctx, CreateProviderConfigInput{
		UserID: u.ID, Provider: config.LLMProviderTypeOpenAI, APIKey: "sk-test", Model: "gpt-4o-mini",
	})
	require.NoError(t, err)

	svc := NewProcessService(st)
	p, err := svc.CreateProcess(ctx, CreateProcessInput{
		UserID: u.ID, Name: "p", LLMProviderConfigID: cfg.ID, MaxDurationMinutes: 60,
		LoginIDs: []string{login.ID}, PromptIDs: []string{prompt.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "created", p.Status)

	got, err := svc.GetProcess(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.GetProcess(ctx, "someone-else", p.ID)
	assert.Error(t, err)
}

func TestTrackedStudentService_TrackAndList(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)
	v := testVault(t)

	loginSvc := NewLoginService(st, v)
	login, err := loginSvc.CreateLogin(ctx, CreateLoginInput{UserID: u.ID, Name: "admin", Username: "s", Password: "p", IsAdmin: true})
	require.NoError(t, err)

	svc := NewTrackedStudentService(st)
	ts, err := svc.TrackStudent(ctx, TrackStudentInput{UserID: u.ID, AdminLoginID: login.ID, MymomentUsername: "student1"})
	require.NoError(t, err)

	list, err := svc.ListTrackedStudents(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, ts.ID, list[0].ID)
}

func TestTrackedStudentService_TrackStudent_RejectsNonAdminLogin(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)
	v := testVault(t)

	loginSvc := NewLoginService(st, v)
	login, err := loginSvc.CreateLogin(ctx, CreateLoginInput{UserID: u.ID, Name: "regular", Username: "s", Password: "p", IsAdmin: false})
	require.NoError(t, err)

	svc := NewTrackedStudentService(st)
	_, err = svc.TrackStudent(ctx, TrackStudentInput{UserID: u.ID, AdminLoginID: login.ID, MymomentUsername: "student1"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestTrackedStudentService_TrackStudent_RejectsLoginOwnedByAnotherUser(t *testing.T) {
	client := testdb.NewTestClient(t)
	st := store.New(client.DB())
	ctx := context.Background()
	u := testUser(t, st, ctx)
	other := testUser(t, st, ctx)
	v := testVault(t)

	loginSvc := NewLoginService(st, v)
	login, err := loginSvc.CreateLogin(ctx, CreateLoginInput{UserID: other.ID, Name: "admin", Username: "s", Password: "p", IsAdmin: true})
	require.NoError(t, err)

	svc := NewTrackedStudentService(st)
	_, err = svc.TrackStudent(ctx, TrackStudentInput{UserID: u.ID, AdminLoginID: login.ID, MymomentUsername: "student1"})
	require.Error(t, err)
	var accessErr *AccessError
	assert.ErrorAs(t, err, &accessErr)
}
