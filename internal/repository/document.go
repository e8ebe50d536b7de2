// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this directory.
package repository

import (
	"context"
	"errors"
	"time"

	"doclib/internal/model"
)

var (
	// ErrNotFound is returned when no document row matches the id.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a document with the same file name already exists.
	ErrDuplicate = errors.New("duplicate file name")
)

// DocumentRepository defines data access for documents and their tags.
// No business logic here, only persistence.
type DocumentRepository interface {
	// Create inserts a new document row. The caller provides the ID; created_at is set by the store.
	// Returns ErrDuplicate when the file name is taken.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document with its tags sorted by name.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FileName resolves the blob name of a document.
	FileName(ctx context.Context, id string) (string, error)

	// List returns a page of summaries ordered by creation time and the total number of documents.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.DocumentSummary], error)

	// Search is List restricted by the filter. Page and total are computed over the same predicate.
	Search(ctx context.Context, f SearchFilter, pq PageQuery) (*PageResult[model.DocumentSummary], error)

	// Update applies the non-nil fields and, when Tags is non-nil, rewrites the tag set,
	// all in one transaction. Returns the updated document.
	Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.Document, error)

	// Delete removes the row and its tag relations and returns the file name it pointed to.
	Delete(ctx context.Context, id string) (string, error)

	// Touch records a read access.
	Touch(ctx context.Context, id string, at time.Time) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// SearchFilter holds case-insensitive substring filters. Empty fields are ignored.
type SearchFilter struct {
	Title  string
	Author string
	Tag    string
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int64
}
