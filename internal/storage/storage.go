// Package storage contains blob store abstractions for PDF files.
// A blob is addressed by the document's file name; names are flat (no directories).
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrBlobNotFound is returned when no blob exists under the name.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBlobExists is returned by Write when the name is already taken. The existing blob is left untouched.
	ErrBlobExists = errors.New("blob already exists")
	// ErrInvalidName is returned for empty names and names that would escape the store.
	ErrInvalidName = errors.New("invalid blob name")
)

// BlobStore is a non-transactional store of named byte blobs.
// Implementations are safe for concurrent use.
type BlobStore interface {
	// Write stores the content of r under name. It never overwrites: an existing
	// name yields ErrBlobExists.
	Write(ctx context.Context, name string, r io.Reader) error
	// Replace stores the content of r under name whether or not a blob exists.
	// Callers must own the name (hold its document row) before replacing.
	Replace(ctx context.Context, name string, r io.Reader) error
	// Read returns the whole blob.
	Read(ctx context.Context, name string) ([]byte, error)
	// Delete removes the blob. A missing blob yields ErrBlobNotFound.
	Delete(ctx context.Context, name string) error
}

// ValidateName rejects names that are empty, contain path separators or are dot entries.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return ErrInvalidName
	}
	return nil
}
