package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAISuccessServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openAIChatResponse{
			Choices: []struct {
				Message openAIMessage `json:"message"`
			}{{Message: openAIMessage{Role: "assistant", Content: content}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "boom"}})
	}))
}

func testEndpoints(t *testing.T, openaiURL, mistralURL string) *config.LLMEndpointRegistry {
	t.Helper()
	return config.NewLLMEndpointRegistry(map[string]*config.LLMEndpointConfig{
		string(config.LLMProviderTypeOpenAI): {
			Type:        config.LLMProviderTypeOpenAI,
			BaseURL:     openaiURL,
			CallTimeout: 5 * time.Second,
		},
		string(config.LLMProviderTypeMistral): {
			Type:        config.LLMProviderTypeMistral,
			BaseURL:     mistralURL,
			CallTimeout: 5 * time.Second,
		},
	})
}

func TestGateway_GenerateReturnsFirstSuccess(t *testing.T) {
	body, _ := json.Marshal(CommentStructure{Comment: "Great work!"})
	srv := openAISuccessServer(t, string(body))
	defer srv.Close()

	gw := New(testEndpoints(t, srv.URL, srv.URL))
	chain := []ProviderCall{{Type: config.LLMProviderTypeOpenAI, APIKey: "key", Model: "gpt-4o-mini"}}

	result, err := gw.Generate(context.Background(), chain, "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "Great work!", result.Comment.Comment)
	assert.Equal(t, config.LLMProviderTypeOpenAI, result.Provider)
}

func TestGateway_FallsBackToNextProviderOnFailure(t *testing.T) {
	failSrv := failingServer(t)
	defer failSrv.Close()

	body, _ := json.Marshal(CommentStructure{Comment: "fallback worked"})
	okSrv := openAISuccessServer(t, string(body))
	defer okSrv.Close()

	gw := New(testEndpoints(t, failSrv.URL, okSrv.URL))
	chain := []ProviderCall{
		{Type: config.LLMProviderTypeOpenAI, APIKey: "key", Model: "gpt-4o-mini"},
		{Type: config.LLMProviderTypeMistral, APIKey: "key", Model: "mistral-small"},
	}

	result, err := gw.Generate(context.Background(), chain, "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "fallback worked", result.Comment.Comment)
	assert.Equal(t, config.LLMProviderTypeMistral, result.Provider)
}

func TestGateway_ExhaustsAllProviders(t *testing.T) {
	failSrv := failingServer(t)
	defer failSrv.Close()

	gw := New(testEndpoints(t, failSrv.URL, failSrv.URL))
	chain := []ProviderCall{
		{Type: config.LLMProviderTypeOpenAI, APIKey: "key", Model: "gpt-4o-mini"},
		{Type: config.LLMProviderTypeMistral, APIKey: "key", Model: "mistral-small"},
	}

	_, err := gw.Generate(context.Background(), chain, "system", "user")
	require.Error(t, err)
	var exhaustion *ProviderExhaustionError
	require.ErrorAs(t, err, &exhaustion)
	assert.Len(t, exhaustion.Attempts, 2)
}

func TestGateway_EnforcesMinCallInterval(t *testing.T) {
	body, _ := json.Marshal(CommentStructure{Comment: "ok"})
	srv := openAISuccessServer(t, string(body))
	defer srv.Close()

	endpoints := config.NewLLMEndpointRegistry(map[string]*config.LLMEndpointConfig{
		string(config.LLMProviderTypeOpenAI): {
			Type:            config.LLMProviderTypeOpenAI,
			BaseURL:         srv.URL,
			CallTimeout:     5 * time.Second,
			MinCallInterval: 50 * time.Millisecond,
		},
	})
	gw := New(endpoints)
	chain := []ProviderCall{{Type: config.LLMProviderTypeOpenAI, APIKey: "key", Model: "gpt-4o-mini"}}

	_, err := gw.Generate(context.Background(), chain, "system", "user")
	require.NoError(t, err)

	start := time.Now()
	_, err = gw.Generate(context.Background(), chain, "system", "user")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
