package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProcessLogin joins a MonitoringProcess to one of its participating logins.
// Invariant (service-layer): the referenced login must belong to the same
// user as the process.
type ProcessLogin struct {
	ent.Schema
}

func (ProcessLogin) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("process_login_id").
			Unique().
			Immutable(),
		field.String("process_id").
			Immutable(),
		field.String("login_id").
			Immutable(),
		field.Bool("is_active").
			Default(true),
	}
}

func (ProcessLogin) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("process", MonitoringProcess.Type).
			Ref("process_logins").
			Field("process_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (ProcessLogin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("process_id", "login_id").Unique(),
	}
}
