package docqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// collector records events in arrival order.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) sink(_ context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *collector) waitFor(t *testing.T, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if evs := c.snapshot(); len(evs) >= n {
			return evs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", n, len(c.snapshot()))
	return nil
}

func TestQueueEmitsStartThenDone(t *testing.T) {
	c := &collector{}
	q := New(nil, c.sink)
	defer q.Shutdown(context.Background())

	jobID := q.Enqueue("doc-1")
	evs := c.waitFor(t, 2)

	if evs[0].Type != EventStart || evs[0].DocumentID != "doc-1" || evs[0].JobID != jobID {
		t.Fatalf("first event = %+v", evs[0])
	}
	if evs[1].Type != EventDone || evs[1].JobID != jobID {
		t.Fatalf("second event = %+v", evs[1])
	}
}

func TestQueueStrictFIFO(t *testing.T) {
	c := &collector{}
	process := func(ctx context.Context, documentID string) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	}
	q := New(process, c.sink)
	defer q.Shutdown(context.Background())

	q.Enqueue("doc-a")
	q.Enqueue("doc-b")

	evs := c.waitFor(t, 4)

	// start(A) and done(A) must both precede start(B).
	want := []struct {
		typ EventType
		doc string
	}{
		{EventStart, "doc-a"},
		{EventDone, "doc-a"},
		{EventStart, "doc-b"},
		{EventDone, "doc-b"},
	}
	for i, w := range want {
		if evs[i].Type != w.typ || evs[i].DocumentID != w.doc {
			t.Fatalf("event[%d] = %+v, want %s %s", i, evs[i], w.typ, w.doc)
		}
	}
}

func TestQueueEmitsErrorOnProcessFailure(t *testing.T) {
	c := &collector{}
	boom := errors.New("stage failed")
	process := func(ctx context.Context, documentID string) error {
		if documentID == "bad" {
			return boom
		}
		return nil
	}
	q := New(process, c.sink)
	defer q.Shutdown(context.Background())

	q.Enqueue("bad")
	q.Enqueue("good")

	evs := c.waitFor(t, 4)
	if evs[1].Type != EventError || !errors.Is(evs[1].Err, boom) {
		t.Fatalf("expected error event for bad job, got %+v", evs[1])
	}
	// The loop continues to the next job after a failure.
	if evs[2].DocumentID != "good" || evs[3].Type != EventDone {
		t.Fatalf("expected good job to complete, got %+v %+v", evs[2], evs[3])
	}
}

func TestQueueSinkPanicDoesNotStopWorker(t *testing.T) {
	c := &collector{}
	calls := 0
	sink := func(ctx context.Context, ev Event) {
		calls++
		if calls == 1 {
			panic("handler exploded")
		}
		c.sink(ctx, ev)
	}
	q := New(nil, sink)
	defer q.Shutdown(context.Background())

	q.Enqueue("doc-1")
	q.Enqueue("doc-2")

	evs := c.waitFor(t, 3)
	if evs[len(evs)-1].Type != EventDone || evs[len(evs)-1].DocumentID != "doc-2" {
		t.Fatalf("expected doc-2 to finish, got %+v", evs)
	}
}

func TestEnqueueDoesNotBlockWhileWorkerBusy(t *testing.T) {
	release := make(chan struct{})
	process := func(ctx context.Context, documentID string) error {
		<-release
		return nil
	}
	q := New(process, nil, WithQueueSize(1))

	q.Enqueue("doc-0")
	deadline := time.Now().Add(5 * time.Second)
	for !q.Processing() {
		if time.Now().After(deadline) {
			t.Fatal("worker never picked up the first job")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// With the worker parked, every further enqueue must still return promptly.
	for i := 0; i < 8; i++ {
		got := make(chan string, 1)
		go func() { got <- q.Enqueue("doc") }()
		select {
		case id := <-got:
			if id == "" {
				t.Fatalf("enqueue %d returned empty job id", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("enqueue %d blocked while the worker was busy", i)
		}
	}
	if q.Len() != 8 {
		t.Fatalf("expected 8 waiting jobs, got %d", q.Len())
	}

	close(release)
	q.Shutdown(context.Background())
}

func TestEnqueueAfterShutdownReturnsEmptyID(t *testing.T) {
	q := New(nil, nil)
	q.Shutdown(context.Background())

	if id := q.Enqueue("doc-1"); id != "" {
		t.Fatalf("expected empty job id after shutdown, got %q", id)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}

func TestQueueShutdownDrains(t *testing.T) {
	c := &collector{}
	q := New(nil, c.sink)

	for i := 0; i < 5; i++ {
		q.Enqueue("doc")
	}
	q.Shutdown(context.Background())

	if got := len(c.snapshot()); got != 10 {
		t.Fatalf("expected 10 events after drain, got %d", got)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}
