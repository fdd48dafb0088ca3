package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"docrisk-backend/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	stored, err := store.Save(ctx, "client-a", "safe.txt", strings.NewReader("uncapped valuation"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if stored.SizeBytes != int64(len("uncapped valuation")) {
		t.Fatalf("unexpected size %d", stored.SizeBytes)
	}
	if !strings.HasPrefix(stored.MimeType, "text/plain") {
		t.Fatalf("unexpected mime type %q", stored.MimeType)
	}

	rc, err := store.Open(ctx, stored.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "uncapped valuation" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, stored.Key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected not-exist after delete, got %v", err)
	}
	if err := store.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../secret", "/etc/passwd", ""} {
		if _, err := store.Open(context.Background(), key); !errors.Is(err, object.ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}
