package match

import (
	"strings"

	"vigil/internal/screening/models"
)

// Evaluate runs the full scoring pipeline for one candidate entity: metric
// scoring over all (form, variant) pairs, corroboration checks, and
// confidence aggregation. The unweighted breakdown is kept on the result so
// a reviewer can see why the match fired.
func Evaluate(query models.Query, forms []Form, entity models.Entity, cfg models.SearchConfig) models.MatchResult {
	scored := ScoreEntity(forms, entity)

	subjectMatched := entity.SubjectType.Matches(query.SubjectType)
	detailsMatched := detailsCorroborate(query, entity)

	confidence := Aggregate(
		scored.Scores,
		cfg.MetricWeights,
		subjectMatched,
		detailsMatched,
		cfg.SubjectTypeBonus,
		cfg.DetailsBonus,
	)

	return models.MatchResult{
		Entity:         entity,
		MatchedName:    scored.Matched,
		Scores:         scored.Scores,
		Confidence:     confidence,
		SubjectMatched: subjectMatched,
		DetailsMatched: detailsMatched,
		Degraded:       len(scored.Dropped) > 0,
		DroppedMetrics: scored.Dropped,
	}
}

// detailsCorroborate checks the optional secondary attributes. They are
// tie-break signals only: absence on either side is neutral, never a
// penalty.
func detailsCorroborate(query models.Query, entity models.Entity) bool {
	if query.DateOfBirth != "" && query.DateOfBirth == entity.Details.DateOfBirth {
		return true
	}
	if query.Nationality != "" &&
		strings.EqualFold(query.Nationality, entity.Details.Nationality) {
		return true
	}
	return false
}
