package match

import (
	"sort"

	"vigil/internal/screening/models"
)

// Rank filters, deduplicates, orders, and truncates raw match results.
//
// The threshold boundary is inclusive: a result scoring exactly the
// threshold is kept. Deduplication keeps the best-ranked result per entity.
// Truncation happens strictly after filtering and deduplication so a better
// match appearing late in an unordered source stream is never discarded.
func Rank(results []models.MatchResult, cfg models.SearchConfig) []models.MatchResult {
	kept := make([]models.MatchResult, 0, len(results))
	for _, r := range results {
		if r.Confidence >= cfg.Threshold {
			kept = append(kept, r)
		}
	}

	// Dedup by entity identifier, keeping the result that ranks first under
	// the same ordering used for the final sort.
	bestByEntity := make(map[string]models.MatchResult, len(kept))
	order := make([]string, 0, len(kept))
	for _, r := range kept {
		current, ok := bestByEntity[r.Entity.ID]
		if !ok {
			bestByEntity[r.Entity.ID] = r
			order = append(order, r.Entity.ID)
			continue
		}
		if ranksBefore(r, current, cfg) {
			bestByEntity[r.Entity.ID] = r
		}
	}

	deduped := make([]models.MatchResult, 0, len(bestByEntity))
	for _, id := range order {
		deduped = append(deduped, bestByEntity[id])
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return ranksBefore(deduped[i], deduped[j], cfg)
	})

	if len(deduped) > cfg.MaxResults {
		deduped = deduped[:cfg.MaxResults]
	}
	return deduped
}

// ranksBefore is the total order over results: confidence descending, then
// subject-type corroboration, then source priority, then entity ID
// ascending. Entity ID last makes the order fully deterministic for a fixed
// snapshot.
func ranksBefore(a, b models.MatchResult, cfg models.SearchConfig) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.SubjectMatched != b.SubjectMatched {
		return a.SubjectMatched
	}
	ra, rb := cfg.SourceRank(a.Entity.Source), cfg.SourceRank(b.Entity.Source)
	if ra != rb {
		return ra < rb
	}
	return a.Entity.ID < b.Entity.ID
}
