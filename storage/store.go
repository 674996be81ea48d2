package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return errors satisfying `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for storing and serving uploaded audio blobs.
// Blobs are written once under a server-generated name and never mutated.
type BlobStore interface {
	// Put streams r into a new blob under name. size is a hint from the
	// transport (-1 if unknown). It returns the relative path the blob is
	// served under and the number of bytes actually written.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (storedPath string, written int64, err error)

	// Open opens a blob for reading. The returned bytes are identical to
	// what was written.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Remove deletes a blob. It exists for the ingestion pipeline's
	// compensating cleanup after a failed catalog insert.
	Remove(ctx context.Context, name string) error
}

// ServePrefix is the URL prefix under which stored blobs are exposed.
const ServePrefix = "/uploads/"

// ErrInvalidName is returned for names that are not plain server-generated
// file names.
var ErrInvalidName = errors.New("invalid blob name")

// validateName rejects anything that is not a plain server-generated file
// name. Names never come from client path components, but a traversal
// attempt via the serve URL must not reach the filesystem.
func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
