package postgres

import (
	"context"
	"fmt"
	"strings"

	"doclib/internal/tagging"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// reconcileTags rewrites the document's relations so they match requested exactly.
// It must run inside the caller's transaction; any error aborts the whole update.
func reconcileTags(ctx context.Context, exec sqlx.ExtContext, documentID string, requested []string) ([]string, error) {
	tags := tagging.Dedupe(requested)

	if len(tags) > 0 {
		var existing []string
		if err := sqlx.SelectContext(ctx, exec, &existing, `SELECT name FROM tags WHERE name = ANY($1)`, pq.Array(tags)); err != nil {
			return nil, fmt.Errorf("select existing tags: %w", err)
		}
		plan := tagging.NewPlan(tags, existing)
		if len(plan.Create) > 0 {
			q := `INSERT INTO tags (name) VALUES ` + placeholders(len(plan.Create), 1) + ` ON CONFLICT (name) DO NOTHING`
			if _, err := exec.ExecContext(ctx, q, stringArgs(plan.Create)...); err != nil {
				return nil, fmt.Errorf("insert tags: %w", err)
			}
		}
		tags = plan.Attach
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM document_tags WHERE document_id = $1`, documentID); err != nil {
		return nil, fmt.Errorf("clear relations: %w", err)
	}

	if len(tags) > 0 {
		q := `INSERT INTO document_tags (document_id, tag_name) VALUES ` + relationPlaceholders(len(tags))
		args := append([]any{documentID}, stringArgs(tags)...)
		if _, err := exec.ExecContext(ctx, q, args...); err != nil {
			return nil, fmt.Errorf("insert relations: %w", err)
		}
	}
	return tags, nil
}

func selectTags(ctx context.Context, q sqlx.QueryerContext, documentID string) ([]string, error) {
	tags := []string{}
	err := sqlx.SelectContext(ctx, q, &tags,
		`SELECT tag_name FROM document_tags WHERE document_id = $1 ORDER BY tag_name`, documentID)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	return tags, nil
}

// placeholders renders n single-column rows starting at $start: ($1),($2),...
func placeholders(n, start int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "($%d)", start+i)
	}
	return b.String()
}

// relationPlaceholders renders n relation rows sharing the document id in $1: ($1,$2),($1,$3),...
func relationPlaceholders(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "($1,$%d)", i+2)
	}
	return b.String()
}

func stringArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
