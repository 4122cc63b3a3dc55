package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo, used in dev mode and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // id -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Document)}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.DocumentType == "" {
		doc.DocumentType = "other"
	}
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	r.data[doc.ID] = doc
	return nil
}

// GetByID fetches a document and enforces ownership.
func (r *MemoryRepo) GetByID(ctx context.Context, id, requestingUserID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	if doc.UserID != requestingUserID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// GetForProcessing fetches a document without an ownership check.
func (r *MemoryRepo) GetForProcessing(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByUser returns the user's documents newest-first, optionally filtered by status.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID, status string, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	r.mu.RLock()
	var docs []Document
	for _, doc := range r.data {
		if doc.UserID != userID {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// TransitionStatus applies a check-then-set guarded status update.
func (r *MemoryRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !CanTransition(from, to) {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok || doc.Status != from {
		return false, nil
	}
	now := time.Now().UTC()
	doc.Status = to
	doc.ProcessedAt = &now
	r.data[id] = doc
	return true, nil
}

// MarkFailed moves a non-terminal document to failed.
func (r *MemoryRepo) MarkFailed(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok || IsTerminal(doc.Status) {
		return false, nil
	}
	now := time.Now().UTC()
	doc.Status = StatusFailed
	doc.ProcessedAt = &now
	r.data[id] = doc
	return true, nil
}

var _ Repo = (*MemoryRepo)(nil)
