package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PlatformLogin holds a credential pair (encrypted) for one target-platform
// account, owned by a User. Gates both monitoring processes and, when
// is_admin, the student-backup feature.
type PlatformLogin struct {
	ent.Schema
}

func (PlatformLogin) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("login_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("name").
			Comment("Display name, unique per user"),
		field.Text("encrypted_username"),
		field.Text("encrypted_password"),
		field.Bool("is_admin").
			Default(false).
			Comment("Gates use for student backup scraping"),
		field.Bool("is_active").
			Default(true),
		field.Time("last_used").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

func (PlatformLogin) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("platform_logins").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
		edge.To("sessions", PlatformSession.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("tracked_students", TrackedStudent.Type),
	}
}

func (PlatformLogin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "name").Unique(),
		index.Fields("user_id", "is_active"),
	}
}
