package audit

import (
	"context"
	"sync"
)

// Sink receives audit events. Implementations must not block the caller;
// the search path treats auditing as fire-and-forget.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// MemorySink collects events in memory. Used in tests and as the fallback
// when no broker is configured.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Emit appends the event.
func (s *MemorySink) Emit(ctx context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
