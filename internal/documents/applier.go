package documents

import (
	"context"

	"findocs-backend/internal/docqueue"
	"findocs-backend/internal/shared/telemetry"
)

// StatusApplier maps queue lifecycle events onto guarded status transitions.
// Stale or out-of-order events are dropped by the transition guards; the
// applier never propagates an error back into the queue worker.
type StatusApplier struct {
	Repo Repo
}

// Apply is wired as the queue's event sink.
func (a *StatusApplier) Apply(ctx context.Context, ev docqueue.Event) {
	var (
		applied bool
		err     error
	)
	switch ev.Type {
	case docqueue.EventStart:
		applied, err = a.Repo.TransitionStatus(ctx, ev.DocumentID, StatusPending, StatusProcessing)
	case docqueue.EventDone:
		applied, err = a.Repo.TransitionStatus(ctx, ev.DocumentID, StatusProcessing, StatusCompleted)
	case docqueue.EventError:
		applied, err = a.Repo.MarkFailed(ctx, ev.DocumentID)
	default:
		telemetry.Warn("status.event_unknown", map[string]any{"job_id": ev.JobID, "type": string(ev.Type)})
		return
	}

	fields := map[string]any{
		"job_id":      ev.JobID,
		"document_id": ev.DocumentID,
		"event":       string(ev.Type),
	}
	switch {
	case err != nil:
		fields["error"] = err.Error()
		telemetry.Error("status.apply_failed", fields)
	case !applied:
		telemetry.Warn("status.event_skipped", fields)
	default:
		telemetry.Info("status.applied", fields)
	}
}
