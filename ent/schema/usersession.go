package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// UserSession tracks an issued JWT by its hash, for revocation lookups. Not
// to be confused with PlatformSession (C3): this is the operator-facing API
// auth session, kept here only because spec.md §6 lists it in the storage
// layout even though the HTTP auth surface itself is out of scope.
type UserSession struct {
	ent.Schema
}

func (UserSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("user_session_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("token_hash").
			Unique().
			Immutable(),
		field.Time("expires_at"),
		field.Bool("is_revoked").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (UserSession) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("user_sessions").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (UserSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("token_hash").Unique(),
		index.Fields("user_id"),
	}
}
