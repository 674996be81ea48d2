package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore implements BlobStore on the local filesystem.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory,
// creating it if absent so first-run deployments do not fail.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

// Put writes the blob to disk. The destination file is opened with O_EXCL:
// a name is never reopened for write once the initial upload completed.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, int64, error) {
	if err := validateName(name); err != nil {
		return "", 0, err
	}

	dest, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create destination file %s: %w", name, err)
	}
	defer dest.Close()

	written, err := io.Copy(dest, r)
	if err != nil {
		return "", written, fmt.Errorf("failed to write blob %s: %w", name, err)
	}

	return ServePrefix + name, written, nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		// *os.PathError wraps os.ErrNotExist, so errors.Is(err, ErrNotFound) holds.
		return nil, err
	}
	return f, nil
}

// Remove deletes a blob from disk.
func (s *LocalStore) Remove(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.root, name))
}
