package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// StageTask is one row in the Postgres-backed work queue (C5's realization
// of spec.md §6's "background queue"). A row is keyed by (process_id,
// stage); the orchestrator claims rows with SELECT ... FOR UPDATE SKIP
// LOCKED, a standard Postgres work-queue claim pattern.
type StageTask struct {
	ent.Schema
}

func (StageTask) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("stage_task_id").
			Unique().
			Immutable(),
		field.String("process_id").
			Immutable(),
		field.Enum("stage").
			Values("discovery", "preparation", "generation", "posting").
			Immutable(),
		field.Enum("status").
			Values("queued", "claimed", "completed", "failed", "cancelled").
			Default("queued"),
		field.String("claimed_by").
			Optional().
			Nillable().
			Comment("Worker id that holds the claim"),
		field.Time("claimed_at").
			Optional().
			Nillable(),
		field.Time("heartbeat_at").
			Optional().
			Nillable().
			Comment("Updated periodically while claimed; drives orphan detection"),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (StageTask) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("process_id", "stage").Unique(),
		index.Fields("status", "created_at"),
		index.Fields("status", "stage"),
	}
}
