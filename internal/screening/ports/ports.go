// Package ports defines shared interfaces for the screening module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
package ports

import (
	"context"

	"vigil/internal/audit"
	"vigil/internal/screening/models"
)

// Source is the uniform read interface over one candidate list. Matching is
// a pure read-side operation: implementations must present a consistent
// snapshot per call and never expose half-updated entities.
type Source interface {
	// Tag identifies which list this source serves.
	Tag() models.SourceTag

	// FetchActive returns the active entities eligible for scoring. The
	// subject-type hint is an optional pushdown filter; sources that cannot
	// filter return everything active. The status filter is mandatory:
	// inactive entries must never reach scoring.
	FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error)

	// Count returns the number of active entities, for health reporting.
	Count(ctx context.Context) (int, error)

	// Health checks if the source is readable.
	Health(ctx context.Context) error
}

// ResultCache stores completed result sets keyed by a query/config
// fingerprint. Implementations must treat failures as misses; caching is an
// optimization, never a correctness dependency.
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.MatchResultSet, bool, error)
	Set(ctx context.Context, key string, set *models.MatchResultSet) error
}

// AuditSink receives screening activity records. Emission must never block
// or fail the search path.
type AuditSink interface {
	Emit(ctx context.Context, event audit.Event)
}
