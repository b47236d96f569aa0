package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/mlevkov/claimaudit/internal/core/domain"
)

func TestSaveOpenRoundTripWithNestedKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := storage.Save(ctx, "case-42/photo.jpg", strings.NewReader("payload bytes")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := storage.Open(ctx, "case-42/photo.jpg")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "payload bytes" {
		t.Fatalf("content = %q", raw)
	}
}

func TestOpenMissingKeyIsNotFound(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = storage.Open(context.Background(), "nope/missing.pdf")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want not found kind", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := storage.Save(ctx, "a/b.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if err := storage.Delete(ctx, "a/b.txt"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := storage.Delete(ctx, "a/b.txt"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestTraversalKeysRejected(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := storage.Save(context.Background(), "../escape.txt", strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input kind", err)
	}
}
