package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ArticleVersion is a versioned snapshot of one tracked student's article.
// Invariant: per (tracked_student, mymoment_article_id), at most
// MAX_VERSIONS active rows — oldest are soft-deleted first.
type ArticleVersion struct {
	ent.Schema
}

func (ArticleVersion) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("article_version_id").
			Unique().
			Immutable(),
		field.String("tracked_student_id").
			Immutable(),
		field.String("mymoment_article_id").
			Immutable(),
		field.Int("version_number").
			Immutable().
			Comment("Monotonic per (tracked_student, article)"),
		field.String("content_hash").
			Immutable().
			Comment("sha256 of plain-text content, hex-encoded"),
		field.Text("title"),
		field.Text("content"),
		field.Text("raw_html"),
		field.Bool("is_active").
			Default(true),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (ArticleVersion) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("tracked_student", TrackedStudent.Type).
			Ref("article_versions").
			Field("tracked_student_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (ArticleVersion) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("tracked_student_id", "mymoment_article_id", "version_number").
			Unique(),
		index.Fields("tracked_student_id", "mymoment_article_id", "is_active"),
	}
}
