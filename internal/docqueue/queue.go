package docqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"findocs-backend/internal/shared/metrics"
	"findocs-backend/internal/shared/telemetry"
)

// EventType tags a lifecycle event emitted by the worker.
type EventType string

const (
	EventStart EventType = "start"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// backpressureDepth is the backlog length past which enqueues log a warning.
const backpressureDepth = 256

// Event is the typed outcome published to the queue's single consumer.
type Event struct {
	JobID      string
	DocumentID string
	Type       EventType
	Err        error
}

// ProcessFunc runs the secondary processing stage for one document.
type ProcessFunc func(ctx context.Context, documentID string) error

// Sink consumes lifecycle events. It is invoked synchronously from the
// worker goroutine, so events for one job are always delivered in order and
// jobs never interleave.
type Sink func(ctx context.Context, ev Event)

type job struct {
	id          string
	documentID  string
	submittedAt time.Time
}

// Queue decouples "a document was accepted" from "a document was fully
// processed". It owns its job list and a single worker goroutine that drains
// jobs strictly FIFO, at most one at a time. The backlog is unbounded so
// Enqueue never blocks a request handler.
type Queue struct {
	process ProcessFunc
	sink    Sink
	timeout time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	backlog []job
	closed  bool

	wg      sync.WaitGroup
	working atomic.Bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithQueueSize pre-allocates backlog capacity for the expected depth.
func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.backlog = make([]job, 0, n)
		}
	}
}

// WithProcessTimeout bounds how long one job may run.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// New constructs a Queue and starts its worker. process may be nil, in which
// case jobs complete immediately; sink may be nil to drop events.
func New(process ProcessFunc, sink Sink, opts ...Option) *Queue {
	q := &Queue{
		process: process,
		sink:    sink,
		timeout: 3 * time.Minute,
	}
	for _, o := range opts {
		o(q)
	}
	q.cond = sync.NewCond(&q.mu)

	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue appends a job for the document and returns its job id without
// waiting for processing. After Shutdown it returns an empty id and the job
// is not queued.
func (q *Queue) Enqueue(documentID string) string {
	j := job{
		id:          uuid.NewString(),
		documentID:  documentID,
		submittedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		telemetry.Warn("docqueue.enqueue_after_shutdown", map[string]any{
			"document_id": documentID,
		})
		return ""
	}

	q.backlog = append(q.backlog, j)
	metrics.IncQueueJob()
	if len(q.backlog) > backpressureDepth {
		telemetry.Warn("docqueue.backpressure", map[string]any{
			"document_id": documentID,
			"depth":       len(q.backlog),
		})
	}
	q.cond.Signal()
	return j.id
}

// Len returns the number of jobs waiting to be processed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Processing reports whether the worker is currently running a job.
func (q *Queue) Processing() bool {
	return q.working.Load()
}

// Shutdown stops accepting jobs and waits for the worker to drain, or for
// ctx to expire.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		telemetry.Warn("docqueue.shutdown_timeout", map[string]any{
			"depth": q.Len(),
		})
	}
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		for len(q.backlog) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.backlog) == 0 {
			q.mu.Unlock()
			return
		}
		j := q.backlog[0]
		q.backlog = q.backlog[1:]
		if len(q.backlog) == 0 {
			q.backlog = nil
		}
		q.mu.Unlock()

		q.working.Store(true)

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		q.emit(ctx, Event{JobID: j.id, DocumentID: j.documentID, Type: EventStart})

		var err error
		if q.process != nil {
			err = q.process(ctx, j.documentID)
		}

		if err != nil {
			q.emit(ctx, Event{JobID: j.id, DocumentID: j.documentID, Type: EventError, Err: err})
		} else {
			q.emit(ctx, Event{JobID: j.id, DocumentID: j.documentID, Type: EventDone})
		}
		cancel()

		q.working.Store(false)
	}
}

// emit delivers an event to the sink. A sink failure is logged and never
// stops the worker loop.
func (q *Queue) emit(ctx context.Context, ev Event) {
	if q.sink == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("docqueue.sink_panic", map[string]any{
				"job_id":      ev.JobID,
				"document_id": ev.DocumentID,
				"event":       string(ev.Type),
				"error":       rec,
			})
		}
	}()
	q.sink(ctx, ev)
}
