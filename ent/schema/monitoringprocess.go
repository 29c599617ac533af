package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// MonitoringProcess is a user-defined recipe that drives the four-stage
// pipeline (C5) across a set of logins and prompt templates under one LLM
// provider, bounded by a wall-clock duration budget.
type MonitoringProcess struct {
	ent.Schema
}

func (MonitoringProcess) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("process_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("name"),
		field.Text("description").
			Optional(),

		// Filters
		field.Int("category_filter").
			Optional().
			Nillable(),
		field.Int("task_filter").
			Optional().
			Nillable(),
		field.String("tab_filter").
			Optional().
			Nillable().
			Comment(`e.g. "alle", "class:<id>"`),
		field.String("search_filter").
			Optional().
			Nillable(),
		field.String("sort_option").
			Optional().
			Nillable(),

		field.String("llm_provider_config_id"),
		field.Int("max_duration_minutes"),
		field.Bool("generate_only").
			Default(false),
		field.Bool("hide_comments").
			Default(false),
		field.Bool("fallback_to_next_provider").
			Default(true),

		field.Enum("status").
			Values("created", "running", "stopped", "completed", "failed").
			Default("created"),
		field.Bool("is_active").
			Default(true),

		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("stopped_at").
			Optional().
			Nillable(),
		field.Time("last_activity_at").
			Optional().
			Nillable(),

		// Per-stage task ids, recorded by the orchestrator
		field.String("discovery_task_id").
			Optional().
			Nillable(),
		field.String("preparation_task_id").
			Optional().
			Nillable(),
		field.String("generation_task_id").
			Optional().
			Nillable(),
		field.String("posting_task_id").
			Optional().
			Nillable(),

		// Per-stage counters
		field.Int("articles_discovered").
			Default(0),
		field.Int("articles_prepared").
			Default(0),
		field.Int("comments_generated").
			Default(0),
		field.Int("comments_posted").
			Default(0),

		// Per-stage error counters
		field.Int("errors_encountered_in_discovery").
			Default(0),
		field.Int("errors_encountered_in_preparation").
			Default(0),
		field.Int("errors_encountered_in_generation").
			Default(0),
		field.Int("errors_encountered_in_posting").
			Default(0),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

func (MonitoringProcess) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("monitoring_processes").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
		edge.To("process_logins", ProcessLogin.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("process_prompts", ProcessPrompt.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("ai_comments", AIComment.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("process_events", ProcessEvent.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (MonitoringProcess) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
		index.Fields("status"),
		index.Fields("user_id", "status"),
	}
}
