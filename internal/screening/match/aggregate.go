package match

// Aggregate combines per-metric scores into one confidence in [0,1].
//
// The aggregate is a weighted mean over every weighted metric: metrics the
// scorer dropped contribute zero while their weight stays in the
// denominator, so a degraded candidate can only lose confidence, never gain
// it. Bounded bonuses are added when the subject type and the secondary
// attributes corroborate, then the result is clamped. Increasing any single
// metric score while holding the rest fixed never decreases the aggregate.
func Aggregate(scores map[string]float64, weights map[string]float64, subjectMatched, detailsMatched bool, subjectBonus, detailsBonus float64) float64 {
	totalWeight := 0.0
	weighted := 0.0
	for name, w := range weights {
		if w <= 0 {
			continue
		}
		totalWeight += w
		weighted += w * clamp01(scores[name])
	}
	if totalWeight == 0 {
		return 0
	}

	confidence := weighted / totalWeight
	if subjectMatched {
		confidence += subjectBonus
	}
	if detailsMatched {
		confidence += detailsBonus
	}
	return clamp01(confidence)
}
