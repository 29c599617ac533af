package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProcessEvent is an append-only audit trail of AIComment status
// transitions, operationalizing spec.md §8 invariant 3 ("status
// monotonicity... verifiable via an audit log"). An append-only
// timeline/event record, scoped down from a streaming UI payload to a
// plain transition record.
type ProcessEvent struct {
	ent.Schema
}

func (ProcessEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("process_event_id").
			Unique().
			Immutable(),
		field.String("process_id").
			Immutable(),
		field.String("comment_id").
			Immutable(),
		field.String("from_status").
			Immutable(),
		field.String("to_status").
			Immutable(),
		field.Time("at").
			Default(time.Now).
			Immutable(),
	}
}

func (ProcessEvent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("process", MonitoringProcess.Type).
			Ref("process_events").
			Field("process_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (ProcessEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("process_id", "at"),
		index.Fields("comment_id", "at"),
	}
}
