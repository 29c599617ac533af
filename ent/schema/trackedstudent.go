package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TrackedStudent (C7) is a student on the target platform whose published
// articles are periodically snapshotted. Must reference an is_admin=true
// login.
type TrackedStudent struct {
	ent.Schema
}

func (TrackedStudent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("tracked_student_id").
			Unique().
			Immutable(),
		field.String("user_id").
			Immutable(),
		field.String("admin_login_id").
			Immutable(),
		field.String("mymoment_username"),
		field.Bool("content_changes_only").
			Default(true),
		field.Time("last_backup_at").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (TrackedStudent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("tracked_students").
			Field("user_id").
			Unique().
			Required().
			Immutable(),
		edge.From("admin_login", PlatformLogin.Type).
			Ref("tracked_students").
			Field("admin_login_id").
			Unique().
			Required().
			Immutable(),
		edge.To("article_versions", ArticleVersion.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (TrackedStudent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "mymoment_username").Unique(),
	}
}
