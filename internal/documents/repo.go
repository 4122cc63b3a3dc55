package documents

import "context"

// Repo defines ownership-scoped persistence for documents. GetByID
// distinguishes "does not exist" (ErrNotFound) from "not yours"
// (ErrForbidden). Status mutations go through the guarded transition
// methods only; no caller writes status directly.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id, requestingUserID string) (Document, error)
	// GetForProcessing fetches without an ownership check. Background
	// workers use it; request handlers never do.
	GetForProcessing(ctx context.Context, id string) (Document, error)
	ListByUser(ctx context.Context, userID, status string, limit int) ([]Document, error)

	// TransitionStatus applies from -> to only if the persisted status
	// equals from. It reports whether the transition was applied.
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	// MarkFailed moves any non-terminal document to failed. It reports
	// whether the transition was applied.
	MarkFailed(ctx context.Context, id string) (bool, error)
}
