package llm

import "github.com/codeready-toolchain/mymoment-monitor/pkg/config"

// CommentStructure is the structured output every provider is constrained
// to return via JSON-schema-enforced output. Confidence and Reasoning are
// optional — not every provider/model combination supports self-reported
// confidence, and callers treat their absence as "unknown", not an error.
type CommentStructure struct {
	Comment    string   `json:"comment" jsonschema_description:"The generated comment text, written for the student author, without the AI-disclosure prefix."`
	Confidence *float64 `json:"confidence,omitempty" jsonschema_description:"Self-reported confidence between 0 and 1, if the model supports it."`
	Reasoning  *string  `json:"reasoning,omitempty" jsonschema_description:"Brief rationale for the comment, if requested by the prompt template."`
}

// ProviderCall identifies one entry in a fallback chain: a provider type,
// plus the per-user model choice and the API key the orchestrator
// decrypted for this call.
type ProviderCall struct {
	Type   config.LLMProviderType
	APIKey string
	Model  string
}

// Result is returned by a successful Generate call, naming which provider
// in the chain actually produced it (for logging/telemetry).
type Result struct {
	Comment  CommentStructure
	Provider config.LLMProviderType
}
