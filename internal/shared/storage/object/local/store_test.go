package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"findocs-backend/internal/shared/storage/object"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	content := []byte("%PDF-1.4 statement body")
	key, size, mimeType, err := store.Save(ctx, "guest:abc", "january.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len(content)) {
		t.Fatalf("size = %d, want %d", size, len(content))
	}
	if mimeType == "" {
		t.Fatal("expected sniffed mime type")
	}
	if !strings.HasSuffix(key, "_january.pdf") {
		t.Fatalf("key = %q, want random prefix before file name", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestSaveSeparatesUsers(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	keyA, _, _, err := store.Save(ctx, "guest:a", "doc.txt", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save a: %v", err)
	}
	keyB, _, _, err := store.Save(ctx, "guest:b", "doc.txt", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save b: %v", err)
	}
	dirA := strings.SplitN(keyA, "/", 2)[0]
	dirB := strings.SplitN(keyB, "/", 2)[0]
	if dirA == dirB {
		t.Fatalf("users share a namespace: %q", dirA)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, err := store.Open(context.Background(), "/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute key")
	}
}

func TestOpenMissingObjectIsErrNotFound(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Open(context.Background(), "nope/missing.pdf")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected object.ErrNotFound, got %v", err)
	}
}
