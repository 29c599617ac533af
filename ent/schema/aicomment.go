package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AIComment is the pipeline's unit of work: one (article, login, prompt)
// triple tracked through discovery, preparation, generation, and posting.
// Rows are never deleted, only soft-deleted (is_active=false, status=deleted).
type AIComment struct {
	ent.Schema
}

func (AIComment) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("comment_id").
			Unique().
			Immutable(),

		// Identity
		field.String("mymoment_article_id"),
		field.String("mymoment_comment_id").
			Optional().
			Nillable().
			Comment("Set only after successful post; globally unique when present"),

		// Foreign keys
		field.String("user_id").
			Immutable(),
		field.String("login_id").
			Optional().
			Nillable().
			Comment("Set at discovery to the login that found the article; overwritten with the posting login when posted"),
		field.String("monitoring_process_id").
			Immutable(),
		field.String("prompt_template_id").
			Immutable(),
		field.String("llm_provider_config_id").
			Immutable(),

		// Article snapshot
		field.String("article_title").
			Optional(),
		field.String("article_author").
			Optional(),
		field.Int("article_category").
			Optional().
			Nillable(),
		field.String("article_url").
			Optional(),
		field.Text("article_content").
			Optional().
			Comment("Plain text"),
		field.Text("article_raw_html").
			Optional(),
		field.Time("article_published_at").
			Optional().
			Nillable(),
		field.Time("article_edited_at").
			Optional().
			Nillable(),
		field.Int("article_task_id").
			Optional().
			Nillable(),
		field.Time("article_scraped_at").
			Optional().
			Nillable(),

		// Comment payload
		field.Text("comment_content").
			Optional().
			Nillable(),
		field.String("ai_model_name").
			Optional(),
		field.String("ai_provider_name").
			Optional(),
		field.Int("generation_tokens").
			Optional().
			Nillable(),
		field.Int("generation_time_ms").
			Optional().
			Nillable(),

		// Lifecycle
		field.Enum("status").
			Values("discovered", "prepared", "generated", "posted", "failed", "deleted").
			Default("discovered"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("posted_at").
			Optional().
			Nillable(),
		field.Time("failed_at").
			Optional().
			Nillable(),
		field.String("error_message").
			Optional().
			Nillable(),
		field.Int("retry_count").
			Default(0),
		field.Bool("is_active").
			Default(true),
		field.Bool("is_hidden").
			Default(false),
	}
}

func (AIComment) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("process", MonitoringProcess.Type).
			Ref("ai_comments").
			Field("monitoring_process_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (AIComment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("mymoment_article_id"),
		index.Fields("status"),
		index.Fields("monitoring_process_id", "status"),
		index.Fields("mymoment_article_id", "monitoring_process_id", "login_id", "prompt_template_id").
			Unique(),
		index.Fields("mymoment_comment_id").
			Unique().
			Annotations(entsql.IndexWhere("mymoment_comment_id IS NOT NULL")),
	}
}

// Annotations document the check constraints enforced at the storage layer
// (see pkg/database/migrations); ent's declarative schema records intent
// even though the constraints themselves are hand-written SQL.
func (AIComment) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{
			Checks: map[string]string{
				"comment_content_required": "status IN ('discovered','prepared') OR comment_content IS NOT NULL",
				"posted_fields_required":   "status <> 'posted' OR (posted_at IS NOT NULL AND mymoment_comment_id IS NOT NULL AND login_id IS NOT NULL)",
				"failed_error_required":    "status <> 'failed' OR error_message IS NOT NULL",
			},
		},
	}
}
