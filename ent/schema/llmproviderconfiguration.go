package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMProviderConfiguration is a user's API credential plus generation knobs
// for one LLM provider (C4 Gateway consumes these, never the raw endpoint
// config directly).
type LLMProviderConfiguration struct {
	ent.Schema
}

func (LLMProviderConfiguration) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("provider_config_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("provider_name").
			Comment("openai, mistral, ..."),
		field.Text("encrypted_api_key"),
		field.String("model_name"),
		field.Int("max_tokens").
			Optional().
			Nillable(),
		field.Float("temperature").
			Optional().
			Nillable().
			Comment("Must be in [0,1] when set"),
		field.Bool("is_active").
			Default(true),
		field.Time("last_used").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (LLMProviderConfiguration) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("llm_provider_configurations").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (LLMProviderConfiguration) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "is_active"),
	}
}
