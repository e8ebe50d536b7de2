// Package model contains the domain types shared across layers.
package model

import "time"

// Document is the full metadata of a stored PDF.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	FileName     string     `json:"file_name"`
	Author       *string    `json:"author,omitempty"`
	PageCount    *int32     `json:"pages,omitempty"`
	Comments     *string    `json:"comments,omitempty"`
	Thumbnail    string     `json:"picture"`
	CreatedAt    time.Time  `json:"uploaded"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	Tags         []string   `json:"tags"`
}

// Summary projects the document onto its listing form.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{ID: d.ID, Title: d.Title, Thumbnail: d.Thumbnail}
}

// DocumentSummary is the lightweight listing projection.
type DocumentSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"picture"`
}

// DocumentPage is one page of summaries plus the number of documents matching the same predicate.
type DocumentPage struct {
	Items []DocumentSummary `json:"items"`
	Total int64             `json:"total"`
}

// DocumentUpdate holds the mutable fields of a document. Nil fields are left unchanged;
// a non-nil empty Tags slice removes every tag.
type DocumentUpdate struct {
	Title     *string  `json:"title,omitempty"`
	Author    *string  `json:"author,omitempty"`
	Comments  *string  `json:"comments,omitempty"`
	Thumbnail *string  `json:"picture,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}
