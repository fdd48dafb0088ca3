package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docrisk-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Save writes r under a fresh key in the hashed namespace directory.
func (s *Store) Save(ctx context.Context, namespace string, fileName string, r io.Reader) (object.Stored, error) {
	key, err := object.NewKey(namespace, fileName)
	if err != nil {
		return object.Stored{}, err
	}
	mimeType, body, err := object.Sniff(fileName, r)
	if err != nil {
		return object.Stored{}, err
	}
	size, err := s.SaveWithKey(ctx, key, mimeType, body)
	if err != nil {
		return object.Stored{}, err
	}
	return object.Stored{Key: key, SizeBytes: size, MimeType: mimeType}, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", storageKey, object.ErrNotFound)
	}
	return f, err
}

// SaveWithKey writes the reader to disk at a specific storage key.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	// content type is not persisted on disk
	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	return written, nil
}

// Delete removes a stored object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func (s *Store) resolve(storageKey string) (string, error) {
	if err := object.CheckKey(storageKey); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(storageKey)), nil
}

var _ object.ObjectStore = (*Store)(nil)
