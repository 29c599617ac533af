package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// User holds the schema definition for the User entity. A user owns every
// other entity in the system (logins, provider configs, prompts, processes,
// tracked students) via cascade delete.
type User struct {
	ent.Schema
}

func (User) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("user_id").
			Unique().
			Immutable(),
		field.String("email").
			Unique(),
		field.String("password_hash"),
		field.Bool("is_active").
			Default(true),
		field.Bool("is_verified").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

func (User) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("platform_logins", PlatformLogin.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("llm_provider_configurations", LLMProviderConfiguration.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("prompt_templates", PromptTemplate.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("monitoring_processes", MonitoringProcess.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("tracked_students", TrackedStudent.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("user_sessions", UserSession.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (User) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("email").Unique(),
	}
}
