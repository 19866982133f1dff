package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Events
// ============================================================

func TestActionCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, ActionSearch.Category())
	assert.Equal(t, CategoryCompliance, ActionBatchSearch.Category())
	assert.Equal(t, CategoryOperations, ActionSnapshotReplace.Category())
	assert.Equal(t, CategoryOperations, ActionCustomCreated.Category())
	assert.Equal(t, CategoryOperations, ActionCustomUpdated.Category())
	assert.Equal(t, CategoryOperations, ActionCustomRemoved.Category())
}

func TestHashQuery(t *testing.T) {
	base := HashQuery("John Smith")

	assert.Len(t, base, 64)
	assert.Equal(t, base, HashQuery("  john smith "), "hash ignores case and padding")
	assert.NotEqual(t, base, HashQuery("Jane Smith"))
	assert.NotContains(t, base, "john", "raw name must not leak into the hash")
}

func TestEventWithClient(t *testing.T) {
	event := Event{Action: ActionSearch}.WithClient(
		"203.0.113.7",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	)

	assert.Equal(t, "203.0.113.7", event.ClientIP)
	assert.Contains(t, event.Browser, "Chrome")
	assert.Contains(t, event.OS, "Windows")
}

func TestEventWithClientEmptyUserAgent(t *testing.T) {
	event := Event{}.WithClient("203.0.113.7", "")

	assert.Equal(t, "203.0.113.7", event.ClientIP)
	assert.Empty(t, event.Browser)
	assert.Empty(t, event.OS)
}

// ============================================================
// Memory sink
// ============================================================

func TestMemorySinkRecordsEvents(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	sink.Emit(ctx, Event{Action: ActionSearch, RequestID: "req-1"})
	sink.Emit(ctx, Event{Action: ActionCustomCreated, RequestID: "req-2"})

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionSearch, events[0].Action)
	assert.Equal(t, "req-2", events[1].RequestID)
}

func TestMemorySinkConcurrentEmit(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Emit(ctx, Event{Action: ActionSearch})
		}()
	}
	wg.Wait()

	assert.Len(t, sink.Events(), 20)
}

// ============================================================
// Worker
// ============================================================

type recordingPublisher struct {
	mu        sync.Mutex
	published []Event
	err       error
	delivered chan struct{}
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{delivered: make(chan struct{}, 64)}
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	p.published = append(p.published, event)
	p.mu.Unlock()
	p.delivered <- struct{}{}
	return p.err
}

func (p *recordingPublisher) events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.published))
	copy(out, p.published)
	return out
}

func waitDelivered(t *testing.T, p *recordingPublisher, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestWorkerDeliversEvents(t *testing.T) {
	publisher := newRecordingPublisher()
	worker := NewWorker(publisher, 8, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	worker.Emit(ctx, Event{Action: ActionSearch, RequestID: "req-1"})
	worker.Emit(ctx, Event{Action: ActionBatchSearch, RequestID: "req-2"})

	waitDelivered(t, publisher, 2)
	events := publisher.events()
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "req-2", events[1].RequestID)
}

func TestWorkerSurvivesPublishFailure(t *testing.T) {
	publisher := newRecordingPublisher()
	publisher.err = errors.New("broker down")
	worker := NewWorker(publisher, 8, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	worker.Emit(ctx, Event{Action: ActionSearch})
	worker.Emit(ctx, Event{Action: ActionSearch})

	// Both events reach the publisher even though the first delivery failed.
	waitDelivered(t, publisher, 2)
	assert.Len(t, publisher.events(), 2)
}

func TestWorkerEmitNeverBlocksWhenFull(t *testing.T) {
	publisher := newRecordingPublisher()
	worker := NewWorker(publisher, 1, slog.Default())
	ctx := context.Background()

	// No Run loop is draining; the second emit must drop, not block.
	done := make(chan struct{})
	go func() {
		worker.Emit(ctx, Event{Action: ActionSearch})
		worker.Emit(ctx, Event{Action: ActionSearch})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	worker := NewWorker(newRecordingPublisher(), 1, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
