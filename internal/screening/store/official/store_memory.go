// Package official stores the read-side snapshot of one official sanction
// list (EU, UN, or OFAC). The refresh process replaces the snapshot
// wholesale; the matching engine only ever reads it.
package official

import (
	"context"
	"sync"

	"vigil/internal/screening/models"
	dErrors "vigil/pkg/domain-errors"
)

// InMemoryStore holds the current snapshot for a single list source.
// Readers see the snapshot that was current when their call started;
// ReplaceSnapshot swaps the whole map atomically under the lock.
type InMemoryStore struct {
	tag models.SourceTag

	mu       sync.RWMutex
	entities map[string]models.Entity
}

// NewInMemory creates an empty snapshot store for the given list source.
func NewInMemory(tag models.SourceTag) *InMemoryStore {
	return &InMemoryStore{
		tag:      tag,
		entities: make(map[string]models.Entity),
	}
}

// Tag returns which list this store serves.
func (s *InMemoryStore) Tag() models.SourceTag {
	return s.tag
}

// ReplaceSnapshot validates and installs a new list version. The swap is
// all-or-nothing: a single invalid entity rejects the whole snapshot and
// leaves the current one in place.
func (s *InMemoryStore) ReplaceSnapshot(ctx context.Context, entities []models.Entity) error {
	next := make(map[string]models.Entity, len(entities))
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return err
		}
		if e.Source != s.tag {
			return dErrors.Newf(dErrors.CodeInvariantViolation,
				"entity %s carries source %s, store serves %s", e.ID, e.Source, s.tag)
		}
		if _, dup := next[e.ID]; dup {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "duplicate entity ID in snapshot: %s", e.ID)
		}
		next[e.ID] = e
	}

	s.mu.Lock()
	s.entities = next
	s.mu.Unlock()
	return nil
}

// FetchActive returns the active entities, optionally narrowed by a
// subject-type hint. Inactive entries never leave the store.
func (s *InMemoryStore) FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if !e.Active {
			continue
		}
		if excludedByHint(e.SubjectType, hint) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

// Count returns the number of active entities in the snapshot.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entities {
		if e.Active {
			n++
		}
	}
	return n, nil
}

// Health always succeeds for the in-memory store.
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}

// excludedByHint filters only on a concrete mismatch: entities with no
// recorded subject type are kept regardless of the hint.
func excludedByHint(subjectType, hint models.SubjectType) bool {
	if hint == "" || hint == models.SubjectUnknown {
		return false
	}
	return subjectType != "" && subjectType != hint
}
