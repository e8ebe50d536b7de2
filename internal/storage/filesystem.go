package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem stores blobs as files in a single directory.
type Filesystem struct {
	dir string
}

var _ BlobStore = (*Filesystem)(nil)

// NewFilesystem creates the directory if needed.
func NewFilesystem(dir string) (*Filesystem, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Filesystem{dir: dir}, nil
}

// Write copies r into a temporary file and hard-links it under name, so a reader
// never sees a partial blob and an existing name is never replaced.
func (f *Filesystem) Write(ctx context.Context, name string, r io.Reader) error {
	tmp, err := f.stage(ctx, name, r)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, f.path(name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrBlobExists
		}
		return fmt.Errorf("publish blob %s: %w", name, err)
	}
	return nil
}

// Replace is Write with an atomic rename, so an existing blob is swapped whole.
func (f *Filesystem) Replace(ctx context.Context, name string, r io.Reader) error {
	tmp, err := f.stage(ctx, name, r)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace blob %s: %w", name, err)
	}
	return nil
}

// stage copies r into a synced temporary file in the blob directory and returns its path.
func (f *Filesystem) stage(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(f.dir, ".incoming-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}

	fail := func(format string, err error) (string, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf(format, name, err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		return fail("write blob %s: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync blob %s: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob %s: %w", name, err)
	}
	return tmp.Name(), nil
}

func (f *Filesystem) Read(_ context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return b, nil
}

func (f *Filesystem) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(f.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrBlobNotFound
		}
		return err
	}
	return nil
}

func (f *Filesystem) path(name string) string {
	return filepath.Join(f.dir, name)
}
