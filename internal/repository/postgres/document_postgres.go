package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"doclib/internal/model"
	"doclib/internal/repository"
	"github.com/jmoiron/sqlx"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses sqlx with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sqlx.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sqlx.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, file_name, author, pages, comments, thumbnail, created_at, last_accessed`

type documentRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	FileName     string         `db:"file_name"`
	Author       sql.NullString `db:"author"`
	Pages        sql.NullInt32  `db:"pages"`
	Comments     sql.NullString `db:"comments"`
	Thumbnail    string         `db:"thumbnail"`
	CreatedAt    time.Time      `db:"created_at"`
	LastAccessed sql.NullTime   `db:"last_accessed"`
}

func (r documentRow) toModel(tags []string) *model.Document {
	d := &model.Document{
		ID:        r.ID,
		Title:     r.Title,
		FileName:  r.FileName,
		Thumbnail: r.Thumbnail,
		CreatedAt: r.CreatedAt,
		Tags:      tags,
	}
	if r.Author.Valid {
		d.Author = &r.Author.String
	}
	if r.Pages.Valid {
		d.PageCount = &r.Pages.Int32
	}
	if r.Comments.Valid {
		d.Comments = &r.Comments.String
	}
	if r.LastAccessed.Valid {
		d.LastAccessed = &r.LastAccessed.Time
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, title, file_name, author, pages, comments, thumbnail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentColumns

	var row documentRow
	err := r.db.GetContext(ctx, &row, q,
		doc.ID,
		doc.Title,
		doc.FileName,
		doc.Author,
		doc.PageCount,
		doc.Comments,
		doc.Thumbnail,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", repository.ErrDuplicate, doc.FileName)
		}
		return nil, err
	}
	return row.toModel(nil), nil
}

// FindByID fetches a single document by its ID together with its tags.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	var row documentRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	tags, err := selectTags(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return row.toModel(tags), nil
}

// FileName returns the blob name a document points to.
func (r *DocumentPostgres) FileName(ctx context.Context, id string) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT file_name FROM documents WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	return r.page(ctx, newPredicate(repository.SearchFilter{}), pq)
}

// Search returns the filtered page and the number of documents matching the same filter.
func (r *DocumentPostgres) Search(ctx context.Context, f repository.SearchFilter, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	return r.page(ctx, newPredicate(f), pq)
}

// Update applies the update under a per-document advisory lock so concurrent
// updates of the same id serialize.
func (r *DocumentPostgres) Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.Document, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, id); err != nil {
		return nil, fmt.Errorf("lock document: %w", err)
	}

	const q = `
		UPDATE documents SET
			title = COALESCE($2, title),
			author = COALESCE($3, author),
			comments = COALESCE($4, comments),
			thumbnail = COALESCE($5, thumbnail)
		WHERE id = $1
		RETURNING ` + documentColumns

	var row documentRow
	if err := tx.GetContext(ctx, &row, q, id, upd.Title, upd.Author, upd.Comments, upd.Thumbnail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var tags []string
	if upd.Tags != nil {
		tags, err = reconcileTags(ctx, tx, id, upd.Tags)
	} else {
		tags, err = selectTags(ctx, tx, id)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return row.toModel(tags), nil
}

// Delete removes a document by ID; tag relations cascade.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `DELETE FROM documents WHERE id = $1 RETURNING file_name`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// Touch stamps last_accessed.
func (r *DocumentPostgres) Touch(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET last_accessed = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PingContext lets the health check probe the pool through the repository.
func (r *DocumentPostgres) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
