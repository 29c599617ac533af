package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PlatformSession is a live, cookie-bearing authenticated session tied to one
// PlatformLogin (C3 Session Manager). At most one is_active=true,
// non-expired row exists per login; enforced at the store/service layer by
// deactivating prior sessions on create.
type PlatformSession struct {
	ent.Schema
}

func (PlatformSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("session_id").
			Unique().
			Immutable(),
		field.String("login_id").
			Immutable(),
		field.Text("encrypted_session_blob").
			Comment("Cookies/tokens serialized as JSON, then vault-encrypted"),
		field.Time("expires_at"),
		field.Bool("is_active").
			Default(true),
		field.Time("last_accessed").
			Default(time.Now),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (PlatformSession) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("login", PlatformLogin.Type).
			Ref("sessions").
			Field("login_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (PlatformSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("login_id", "is_active"),
		index.Fields("expires_at"),
	}
}
