package database

import (
	"context"
	"database/sql"
	"fmt"
)

// appTables lists every table the embedded migrations create, in an order
// safe for DROP TABLE (children before parents via CASCADE makes ordering
// moot, but listing them explicitly keeps this honest as the schema grows).
var appTables = []string{
	"process_events",
	"stage_tasks",
	"user_sessions",
	"article_versions",
	"tracked_students",
	"ai_comments",
	"process_prompts",
	"process_logins",
	"monitoring_processes",
	"prompt_templates",
	"llm_provider_configurations",
	"platform_sessions",
	"platform_logins",
	"users",
}

// DropAll drops every application table, for the `db reset` CLI command.
// The caller is expected to reconnect afterwards so migrations reapply.
func DropAll(ctx context.Context, db *sql.DB) error {
	for _, table := range appTables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS schema_migrations`)
	return err
}

// TableStats returns a row count per application table, for the `db stats`
// CLI command.
func TableStats(ctx context.Context, db *sql.DB) (map[string]int64, error) {
	out := make(map[string]int64, len(appTables))
	for _, table := range appTables {
		var n int64
		if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}
