package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProcessPrompt joins a MonitoringProcess to one of its participating prompt
// templates, with a selection weight used when a process needs to pick among
// several prompts for the same article.
type ProcessPrompt struct {
	ent.Schema
}

func (ProcessPrompt) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("process_prompt_id").
			Unique().
			Immutable(),
		field.String("process_id").
			Immutable(),
		field.String("prompt_template_id").
			Immutable(),
		field.Bool("is_active").
			Default(true),
		field.Int("weight").
			Default(1).
			Comment("Must be > 0"),
	}
}

func (ProcessPrompt) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("process", MonitoringProcess.Type).
			Ref("process_prompts").
			Field("process_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (ProcessPrompt) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("process_id", "prompt_template_id").Unique(),
	}
}
