// Package llm implements the LLM gateway (C4): a provider-agnostic
// generate(system_prompt, user_prompt) -> CommentStructure call, with a
// per-provider minimum call interval and a fallback chain across
// configured providers.
package llm

import (
	"context"
	"sync"
	"time"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/config"
)

// Gateway dispatches structured-output generation calls across configured
// LLM providers, enforcing each provider's MinCallInterval and falling
// back to the next provider in the chain on failure.
type Gateway struct {
	endpoints *config.LLMEndpointRegistry

	mu           sync.Mutex
	lastCallTime map[config.LLMProviderType]time.Time
}

// New builds a Gateway backed by the deployment's endpoint registry.
func New(endpoints *config.LLMEndpointRegistry) *Gateway {
	return &Gateway{
		endpoints:    endpoints,
		lastCallTime: make(map[config.LLMProviderType]time.Time),
	}
}

// Generate tries each call in chain order, in the order supplied by the
// caller (the orchestrator's GenerationExecutor builds the chain), and
// returns the first success. If every provider fails, it returns a
// ProviderExhaustionError wrapping every attempt's error.
func (g *Gateway) Generate(ctx context.Context, chain []ProviderCall, systemPrompt, userPrompt string) (*Result, error) {
	var attempts []*LLMError

	for _, call := range chain {
		endpoint, err := g.endpoints.Get(string(call.Type))
		if err != nil {
			attempts = append(attempts, &LLMError{Provider: string(call.Type), Err: err})
			continue
		}

		if err := g.waitForSlot(ctx, call.Type, endpoint.MinCallInterval); err != nil {
			attempts = append(attempts, &LLMError{Provider: string(call.Type), Err: err})
			continue
		}

		p, err := newProvider(call.Type)
		if err != nil {
			attempts = append(attempts, &LLMError{Provider: string(call.Type), Err: err})
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, endpoint.CallTimeout)
		comment, err := p.generate(callCtx, endpoint, call, systemPrompt, userPrompt)
		cancel()

		g.recordCall(call.Type)

		if err != nil {
			attempts = append(attempts, &LLMError{Provider: string(call.Type), Err: err})
			continue
		}

		return &Result{Comment: *comment, Provider: call.Type}, nil
	}

	return nil, &ProviderExhaustionError{Attempts: attempts}
}

// waitForSlot blocks until at least MinCallInterval has elapsed since the
// last call to this provider, or the context is canceled first.
func (g *Gateway) waitForSlot(ctx context.Context, t config.LLMProviderType, minInterval time.Duration) error {
	g.mu.Lock()
	last, ok := g.lastCallTime[t]
	g.mu.Unlock()

	if !ok {
		return nil
	}

	wait := minInterval - time.Since(last)
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (g *Gateway) recordCall(t config.LLMProviderType) {
	g.mu.Lock()
	g.lastCallTime[t] = time.Now()
	g.mu.Unlock()
}
