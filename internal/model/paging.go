package model

import (
	"strings"

	"doclib/internal/apperr"
)

// PageRequest selects a 1-based page of a fixed size.
type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Validate rejects non-positive page numbers and sizes.
func (p PageRequest) Validate() error {
	if p.Page <= 0 {
		return apperr.Validation("paging", "page", "page must be a positive integer, got %d", p.Page)
	}
	if p.Size <= 0 {
		return apperr.Validation("paging", "size", "size must be a positive integer, got %d", p.Size)
	}
	return nil
}

// Offset is the number of rows preceding the page.
func (p PageRequest) Offset() int {
	return p.Size * (p.Page - 1)
}

// SearchRequest filters documents by case-insensitive substrings. Blank filters are absent.
type SearchRequest struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Tag    string `json:"tag,omitempty"`
	PageRequest
}

// Normalized trims every filter.
func (s SearchRequest) Normalized() SearchRequest {
	s.Title = strings.TrimSpace(s.Title)
	s.Author = strings.TrimSpace(s.Author)
	s.Tag = strings.TrimSpace(s.Tag)
	return s
}

// HasFilter reports whether at least one filter is present.
func (s SearchRequest) HasFilter() bool {
	n := s.Normalized()
	return n.Title != "" || n.Author != "" || n.Tag != ""
}

// Validate requires valid paging and at least one filter.
func (s SearchRequest) Validate() error {
	if err := s.PageRequest.Validate(); err != nil {
		return err
	}
	if !s.HasFilter() {
		return apperr.Validation("search", "filter", "at least one of title, author or tag is required")
	}
	return nil
}
