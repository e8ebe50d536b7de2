package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"doclib/internal/model"
	"doclib/internal/repository"
)

// predicate is a WHERE clause with its positional arguments. It is built once
// per request and rendered into both the page query and the count query.
type predicate struct {
	conds []string
	args  []any
}

func newPredicate(f repository.SearchFilter) predicate {
	var p predicate
	if f.Title != "" {
		p.add(`d.title ILIKE '%%' || $%d || '%%'`, f.Title)
	}
	if f.Author != "" {
		p.add(`d.author ILIKE '%%' || $%d || '%%'`, f.Author)
	}
	if f.Tag != "" {
		p.add(`EXISTS (SELECT 1 FROM document_tags dt WHERE dt.document_id = d.id AND dt.tag_name ILIKE '%%' || $%d || '%%')`, f.Tag)
	}
	return p
}

func (p *predicate) add(format, value string) {
	p.args = append(p.args, escapeLike(value))
	p.conds = append(p.conds, fmt.Sprintf(format, len(p.args)))
}

func (p predicate) where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.conds, " AND ")
}

func (p predicate) pageSQL(pq repository.PageQuery) (string, []any) {
	n := len(p.args)
	q := `SELECT d.id, d.title, d.thumbnail FROM documents d` + p.where() +
		fmt.Sprintf(` ORDER BY d.created_at, d.id LIMIT $%d OFFSET $%d`, n+1, n+2)
	args := append(append([]any{}, p.args...), pq.Limit, pq.Offset)
	return q, args
}

func (p predicate) countSQL() (string, []any) {
	return `SELECT COUNT(*) FROM documents d` + p.where(), p.args
}

// escapeLike makes LIKE metacharacters in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type summaryRow struct {
	ID        string `db:"id"`
	Title     string `db:"title"`
	Thumbnail string `db:"thumbnail"`
}

// page runs the page and count queries in one read-only snapshot.
func (r *DocumentPostgres) page(ctx context.Context, p predicate, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	pageQ, pageArgs := p.pageSQL(pq)
	var rows []summaryRow
	if err := tx.SelectContext(ctx, &rows, pageQ, pageArgs...); err != nil {
		return nil, fmt.Errorf("select page: %w", err)
	}

	countQ, countArgs := p.countSQL()
	var total int64
	if err := tx.GetContext(ctx, &total, countQ, countArgs...); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	items := make([]model.DocumentSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.DocumentSummary{ID: row.ID, Title: row.Title, Thumbnail: row.Thumbnail})
	}
	return &repository.PageResult[model.DocumentSummary]{Items: items, Total: total}, nil
}
