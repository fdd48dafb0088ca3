package object

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned when a storage key escapes the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Stored describes an object written by Save.
type Stored struct {
	Key       string
	SizeBytes int64
	MimeType  string
}

// ObjectStore holds uploaded documents between an upload and the analysis that consumes them.
type ObjectStore interface {
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (Stored, error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
