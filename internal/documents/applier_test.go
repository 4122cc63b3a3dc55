package documents

import (
	"context"
	"testing"
	"time"

	"findocs-backend/internal/docqueue"
)

func TestStatusApplierDrivesLifecycle(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, Document{ID: "doc-1", UserID: "u", FileName: "a.pdf", Status: StatusPending, UploadedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	applier := &StatusApplier{Repo: repo}

	applier.Apply(ctx, docqueue.Event{JobID: "j1", DocumentID: "doc-1", Type: docqueue.EventStart})
	doc, _ := repo.GetByID(ctx, "doc-1", "u")
	if doc.Status != StatusProcessing {
		t.Fatalf("after start: %s", doc.Status)
	}

	applier.Apply(ctx, docqueue.Event{JobID: "j1", DocumentID: "doc-1", Type: docqueue.EventDone})
	doc, _ = repo.GetByID(ctx, "doc-1", "u")
	if doc.Status != StatusCompleted {
		t.Fatalf("after done: %s", doc.Status)
	}

	// A straggling error event must not flip the terminal record.
	applier.Apply(ctx, docqueue.Event{JobID: "j1", DocumentID: "doc-1", Type: docqueue.EventError})
	doc, _ = repo.GetByID(ctx, "doc-1", "u")
	if doc.Status != StatusCompleted {
		t.Fatalf("after stale error: %s", doc.Status)
	}
}

func TestStatusApplierErrorEventFailsInFlightDocument(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, Document{ID: "doc-2", UserID: "u", FileName: "b.pdf", Status: StatusPending, UploadedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	applier := &StatusApplier{Repo: repo}

	applier.Apply(ctx, docqueue.Event{JobID: "j2", DocumentID: "doc-2", Type: docqueue.EventStart})
	applier.Apply(ctx, docqueue.Event{JobID: "j2", DocumentID: "doc-2", Type: docqueue.EventError})

	doc, _ := repo.GetByID(ctx, "doc-2", "u")
	if doc.Status != StatusFailed {
		t.Fatalf("after error: %s", doc.Status)
	}
	if doc.ProcessedAt == nil {
		t.Fatal("expected processedAt to be stamped")
	}
}
