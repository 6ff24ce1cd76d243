// Package storage keeps uploaded document files on local disk or in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "paperless/internal/errors"
)

// Storage is a flat namespace of files addressed by their stored name.
type Storage interface {
	// Put writes r under name and returns the backend path of the file. On
	// failure it removes whatever it wrote and leaves existing files alone.
	Put(ctx context.Context, name string, r io.Reader, contentType string) (path string, err error)
	// Open returns the file contents and size. A missing file is
	// apperrors.ErrFileMissing.
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	// Remove deletes the file. Removing a missing file is not an error.
	Remove(ctx context.Context, name string) error
	// URL returns an address clients can fetch the file from.
	URL(ctx context.Context, name string) (string, error)
}

// validName rejects anything that is not a single path element.
func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: invalid file name %q", apperrors.ErrFileMissing, name)
	}
	return nil
}
