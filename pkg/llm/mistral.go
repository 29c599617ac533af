package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
)

// mistralProvider calls Mistral's chat completions endpoint, which is
// OpenAI-compatible enough to share the request/response shape but is kept
// as its own type so the two providers can diverge (rate limits, schema
// support, error bodies) without entangling one client's quirks with the
// other's.
type mistralProvider struct{}

func (p *mistralProvider) generate(ctx context.Context, endpoint *config.LLMEndpointConfig, call ProviderCall, systemPrompt, userPrompt string) (*CommentStructure, error) {
	reqBody := openAIChatRequest{
		Model: call.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIJSONSchemaSpec{
				Name:   "comment_structure",
				Strict: true,
				Schema: commentJSONSchema(),
			},
		},
		Temperature: 0.7,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := endpoint.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+call.APIKey)

	client := &http.Client{Timeout: endpoint.CallTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if chatResp.Error != nil {
			return nil, fmt.Errorf("mistral error (%d): %s", resp.StatusCode, chatResp.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	var out CommentStructure
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decode comment structure: %w", err)
	}

	return &out, nil
}
