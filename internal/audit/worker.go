package audit

import (
	"context"
	"log/slog"
)

// Worker decouples audit emission from delivery. Emit enqueues without
// blocking the caller; a background Run loop drains the inbox and hands
// events to the publisher. When the inbox is full the event is dropped
// and logged rather than stalling the search path.
type Worker struct {
	publisher Publisher
	inbox     chan Event
	logger    *slog.Logger
}

// NewWorker creates a worker with the given inbox capacity.
func NewWorker(publisher Publisher, capacity int, logger *slog.Logger) *Worker {
	if capacity <= 0 {
		capacity = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		publisher: publisher,
		inbox:     make(chan Event, capacity),
		logger:    logger,
	}
}

// Emit enqueues the event for background delivery. Never blocks.
func (w *Worker) Emit(ctx context.Context, event Event) {
	select {
	case w.inbox <- event:
	default:
		w.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"request_id", event.RequestID,
		)
	}
}

// Run drains the inbox until the context is cancelled. Delivery failures
// are logged and do not stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit event delivery failed",
					"action", event.Action,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}
