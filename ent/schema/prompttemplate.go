package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PromptTemplate is a reusable system+user prompt pair. SYSTEM-category
// templates are shared (user_id null); USER-category templates belong to
// exactly one user.
type PromptTemplate struct {
	ent.Schema
}

func (PromptTemplate) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("prompt_template_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Optional().
			Nillable().
			Immutable(),
		field.Enum("category").
			Values("SYSTEM", "USER"),
		field.String("name"),
		field.Text("system_prompt"),
		field.Text("user_prompt_template").
			Comment("Contains {placeholder} tokens drawn from the recognized set"),
		field.Bool("is_active").
			Default(true),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (PromptTemplate) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("prompt_templates").
			Field("user_id").
			Unique(),
	}
}

func (PromptTemplate) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("category"),
		index.Fields("user_id", "is_active"),
	}
}
