package llm

import (
	"context"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
)

// provider is implemented by each per-type LLM client. The gateway never
// talks HTTP itself — every concrete client owns its own request/response
// shape, following kadirpekel-hector's pattern of one hand-rolled net/http
// client per provider rather than a shared SDK.
type provider interface {
	generate(ctx context.Context, endpoint *config.LLMEndpointConfig, call ProviderCall, systemPrompt, userPrompt string) (*CommentStructure, error)
}

func newProvider(t config.LLMProviderType) (provider, error) {
	switch t {
	case config.LLMProviderTypeOpenAI:
		return &openAIProvider{}, nil
	case config.LLMProviderTypeMistral:
		return &mistralProvider{}, nil
	default:
		return nil, ErrProviderNotConfigured
	}
}
