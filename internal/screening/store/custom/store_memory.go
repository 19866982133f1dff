// Package custom stores the user-managed sanction list. Unlike the official
// lists it takes concurrent writes from the management service, so reads
// must hand out consistent copies.
package custom

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vigil/internal/screening/models"
	"vigil/pkg/platform/sentinel"
	pstrings "vigil/pkg/platform/strings"
)

// Record is a stored custom-list entry with its management metadata.
type Record struct {
	ID          string
	PrimaryName string
	Aliases     []string
	SubjectType models.SubjectType
	Nationality string
	DateOfBirth string
	Notes       string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Entity converts a record into the unified matching view.
func (r Record) Entity() models.Entity {
	names := make([]models.NameVariant, 0, 1+len(r.Aliases))
	names = append(names, models.NameVariant{Text: r.PrimaryName, Kind: models.KindPrimary})
	for _, a := range r.Aliases {
		names = append(names, models.NameVariant{Text: a, Kind: models.KindAlias})
	}
	return models.Entity{
		ID:          r.ID,
		Source:      models.SourceCustom,
		SubjectType: r.SubjectType,
		Active:      r.Active,
		Names:       names,
		Details: models.EntityDetails{
			Nationality: r.Nationality,
			DateOfBirth: r.DateOfBirth,
		},
	}
}

// InMemoryStore keeps custom entries in a mutex-guarded map.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewInMemory creates an empty custom-list store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Tag identifies the user-managed list.
func (s *InMemoryStore) Tag() models.SourceTag {
	return models.SourceCustom
}

// Create stores a new entry and assigns its identifier.
func (s *InMemoryStore) Create(ctx context.Context, record Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = uuid.NewString()
	record.Aliases = pstrings.DedupeAndTrim(record.Aliases)
	record.Active = true
	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now

	s.records[record.ID] = record
	return record, nil
}

// Get returns one entry by ID.
func (s *InMemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

// Update replaces the mutable fields of an existing entry.
func (s *InMemoryStore) Update(ctx context.Context, record Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[record.ID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}

	current.PrimaryName = record.PrimaryName
	current.Aliases = pstrings.DedupeAndTrim(record.Aliases)
	current.SubjectType = record.SubjectType
	current.Nationality = record.Nationality
	current.DateOfBirth = record.DateOfBirth
	current.Notes = record.Notes
	current.UpdatedAt = s.now()

	s.records[record.ID] = current
	return current, nil
}

// Deactivate soft-deletes an entry: it stays listable for management but is
// excluded from matching.
func (s *InMemoryStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Active = false
	record.UpdatedAt = s.now()
	s.records[id] = record
	return nil
}

// List returns every entry, active or not, ordered by creation time.
func (s *InMemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// FetchActive returns the active entries as matching entities. The copy
// taken under the read lock is the batch's stable snapshot: concurrent
// management writes do not leak into a fetch already returned.
func (s *InMemoryStore) FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]models.Entity, 0, len(s.records))
	for _, r := range s.records {
		if !r.Active {
			continue
		}
		if hint != "" && hint != models.SubjectUnknown &&
			r.SubjectType != "" && r.SubjectType != hint {
			continue
		}
		entities = append(entities, r.Entity())
	}
	return entities, nil
}

// Count returns the number of active entries.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.Active {
			n++
		}
	}
	return n, nil
}

// Health always succeeds for the in-memory store.
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}
