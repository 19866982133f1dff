package models

import (
	"time"

	dErrors "vigil/pkg/domain-errors"
)

// Default search tuning. Callers override per request; list-specific tuning
// is expected, so none of these are hard law.
const (
	DefaultThreshold  = 0.7
	DefaultMaxResults = 100

	DefaultSubjectTypeBonus = 0.05
	DefaultDetailsBonus     = 0.03

	DefaultFetchTimeout = 5 * time.Second
)

// DefaultMetricWeights balances exact-token and character-level evidence,
// with phonetic agreement as a weaker corroborating signal.
func DefaultMetricWeights() map[string]float64 {
	return map[string]float64{
		MetricTokenSet:    0.25,
		MetricLevenshtein: 0.3,
		MetricJaroWinkler: 0.3,
		MetricPhonetic:    0.15,
	}
}

// DefaultSourcePriority orders sources for tie-breaking. Conventional, not
// regulatory: deployments reorder it through SearchConfig.
func DefaultSourcePriority() []SourceTag {
	return []SourceTag{SourceEU, SourceUN, SourceOFAC, SourceCustom}
}

// SearchConfig carries every tunable of a single search or batch call.
// Passing it explicitly (rather than process-wide flags) keeps concurrent
// batches with different settings independent.
type SearchConfig struct {
	// Threshold is the minimum confidence for inclusion; the boundary is
	// inclusive, a result scoring exactly Threshold is kept.
	Threshold float64

	// MaxResults caps the result set after filtering and deduplication.
	MaxResults int

	// EnabledSources limits which official lists are consulted. Empty means
	// all official sources.
	EnabledSources []SourceTag

	// IncludeCustom toggles the user-managed list.
	IncludeCustom bool

	// MetricWeights maps metric name to a non-negative weight. Metrics
	// absent from the map do not contribute.
	MetricWeights map[string]float64

	// SubjectTypeBonus and DetailsBonus are bounded additive bonuses applied
	// when the subject type, respectively secondary attributes, corroborate.
	SubjectTypeBonus float64
	DetailsBonus     float64

	// SourcePriority orders sources for deterministic tie-breaking.
	SourcePriority []SourceTag

	// FetchTimeout bounds each source read.
	FetchTimeout time.Duration
}

// DefaultSearchConfig returns the standard tuning.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Threshold:        DefaultThreshold,
		MaxResults:       DefaultMaxResults,
		IncludeCustom:    true,
		MetricWeights:    DefaultMetricWeights(),
		SubjectTypeBonus: DefaultSubjectTypeBonus,
		DetailsBonus:     DefaultDetailsBonus,
		SourcePriority:   DefaultSourcePriority(),
		FetchTimeout:     DefaultFetchTimeout,
	}
}

// Validate rejects caller-level setup mistakes. A configuration error fails
// the whole call, never a single batch item.
func (c SearchConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return dErrors.Newf(dErrors.CodeConfiguration, "threshold must be in [0,1], got %v", c.Threshold)
	}
	if c.MaxResults <= 0 {
		return dErrors.Newf(dErrors.CodeConfiguration, "max results must be positive, got %d", c.MaxResults)
	}
	if len(c.MetricWeights) == 0 {
		return dErrors.New(dErrors.CodeConfiguration, "at least one metric weight is required")
	}
	total := 0.0
	for name, w := range c.MetricWeights {
		if !isKnownMetric(name) {
			return dErrors.Newf(dErrors.CodeConfiguration, "unknown metric: %q", name)
		}
		if w < 0 {
			return dErrors.Newf(dErrors.CodeConfiguration, "metric weight must be non-negative: %s=%v", name, w)
		}
		total += w
	}
	if total == 0 {
		return dErrors.New(dErrors.CodeConfiguration, "metric weights must not all be zero")
	}
	if c.SubjectTypeBonus < 0 || c.DetailsBonus < 0 {
		return dErrors.New(dErrors.CodeConfiguration, "bonuses must be non-negative")
	}
	for _, tag := range c.EnabledSources {
		if !tag.IsValid() {
			return dErrors.Newf(dErrors.CodeConfiguration, "invalid enabled source: %q", tag)
		}
	}
	for _, tag := range c.SourcePriority {
		if !tag.IsValid() {
			return dErrors.Newf(dErrors.CodeConfiguration, "invalid source priority entry: %q", tag)
		}
	}
	if c.FetchTimeout < 0 {
		return dErrors.New(dErrors.CodeConfiguration, "fetch timeout must not be negative")
	}
	return nil
}

// SourceEnabled reports whether a source participates in this call.
func (c SearchConfig) SourceEnabled(tag SourceTag) bool {
	if tag == SourceCustom {
		return c.IncludeCustom
	}
	if len(c.EnabledSources) == 0 {
		return true
	}
	for _, t := range c.EnabledSources {
		if t == tag {
			return true
		}
	}
	return false
}

// SourceRank returns the tie-break rank of a source, lower winning. Sources
// missing from the priority list rank below all listed ones.
func (c SearchConfig) SourceRank(tag SourceTag) int {
	priority := c.SourcePriority
	if len(priority) == 0 {
		priority = DefaultSourcePriority()
	}
	for i, t := range priority {
		if t == tag {
			return i
		}
	}
	return len(priority)
}

func isKnownMetric(name string) bool {
	for _, m := range KnownMetrics {
		if m == name {
			return true
		}
	}
	return false
}
