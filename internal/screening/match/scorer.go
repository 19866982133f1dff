// Package match implements the scoring engine: per-metric similarity,
// confidence aggregation, and ranking. Pure domain logic - no I/O.
package match

import (
	"github.com/agnivade/levenshtein"
	"github.com/antzucaro/matchr"

	"vigil/internal/screening/models"
	"vigil/internal/screening/normalize"
)

// Form is one canonical comparison form of a query, with its derived token
// and phonetic representations precomputed once per query.
type Form struct {
	Text   string
	Tokens []string
	Keys   []string
}

// BuildForms normalizes a raw name into its comparison forms. Fails with an
// invalid-query error for input with no comparable content.
func BuildForms(raw string) ([]Form, error) {
	texts, err := normalize.Forms(raw)
	if err != nil {
		return nil, err
	}
	forms := make([]Form, len(texts))
	for i, t := range texts {
		tokens := normalize.Tokens(t)
		forms[i] = Form{Text: t, Tokens: tokens, Keys: normalize.PhoneticKeys(tokens)}
	}
	return forms, nil
}

// Scored is the outcome of scoring one entity against a query: the
// per-metric maxima over every (query form, name variant) pair, the variant
// that matched best overall, and any metrics dropped by an internal failure.
type Scored struct {
	Scores  models.MetricScores
	Matched models.NameVariant
	Dropped []string
}

type metricFunc func(q Form, v Form) float64

var metricFuncs = map[string]metricFunc{
	models.MetricTokenSet:    tokenSetRatio,
	models.MetricLevenshtein: levenshteinRatio,
	models.MetricJaroWinkler: jaroWinklerRatio,
	models.MetricPhonetic:    phoneticRatio,
}

// ScoreEntity scores every name variant of an entity against every query
// form, keeping the best pair per metric. A metric that fails for a variant
// is dropped for this entity (zero contribution, flagged) instead of
// aborting the query.
func ScoreEntity(forms []Form, entity models.Entity) Scored {
	best := models.MetricScores{}
	droppedSet := map[string]struct{}{}

	var matched models.NameVariant
	bestVariantScore := -1.0

	for _, variant := range entity.Names {
		vf := variantForm(variant.Text)
		if vf.Text == "" {
			continue
		}

		variantTotal := 0.0
		variantMetrics := 0
		for name, fn := range metricFuncs {
			score, ok := safeMetric(fn, forms, vf)
			if !ok {
				droppedSet[name] = struct{}{}
				continue
			}
			variantTotal += score
			variantMetrics++
			if score > best[name] {
				best[name] = score
			}
		}

		if variantMetrics == 0 {
			continue
		}
		mean := variantTotal / float64(variantMetrics)
		// Strictly-greater keeps the earliest variant on ties, so scoring
		// stays deterministic for a fixed snapshot.
		if mean > bestVariantScore {
			bestVariantScore = mean
			matched = variant
		}
	}

	dropped := make([]string, 0, len(droppedSet))
	for _, name := range models.KnownMetrics {
		if _, ok := droppedSet[name]; ok {
			dropped = append(dropped, name)
		}
	}

	return Scored{Scores: best, Matched: matched, Dropped: dropped}
}

// SharesPhoneticKey reports whether any query form shares a phonetic key
// with any name variant of the entity. Used as a blocking pre-filter when
// the candidate volume is large; never as the sole basis for inclusion.
func SharesPhoneticKey(forms []Form, entity models.Entity) bool {
	queryKeys := map[string]struct{}{}
	for _, f := range forms {
		for _, k := range f.Keys {
			queryKeys[k] = struct{}{}
		}
	}
	if len(queryKeys) == 0 {
		return true
	}
	for _, variant := range entity.Names {
		for _, k := range normalize.PhoneticKeys(normalize.Tokens(normalize.Base(variant.Text))) {
			if _, ok := queryKeys[k]; ok {
				return true
			}
		}
	}
	return false
}

// safeMetric evaluates one metric over the cartesian product of query forms
// and a single variant form, converting any panic into a dropped metric.
func safeMetric(fn metricFunc, forms []Form, vf Form) (score float64, ok bool) {
	defer func() {
		if recover() != nil {
			score, ok = 0, false
		}
	}()

	best := 0.0
	for _, qf := range forms {
		if s := fn(qf, vf); s > best {
			best = s
		}
	}
	return clamp01(best), true
}

func variantForm(text string) Form {
	base := normalize.Base(text)
	tokens := normalize.Tokens(base)
	return Form{Text: base, Tokens: tokens, Keys: normalize.PhoneticKeys(tokens)}
}

// tokenSetRatio is the symmetric, order-independent overlap of token sets.
func tokenSetRatio(q Form, v Form) float64 {
	if len(q.Tokens) == 0 || len(v.Tokens) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(q.Tokens))
	for _, t := range q.Tokens {
		set[t] = struct{}{}
	}
	union := len(set)
	shared := 0
	seen := make(map[string]struct{}, len(v.Tokens))
	for _, t := range v.Tokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			shared++
		} else {
			union++
		}
	}
	return float64(shared) / float64(union)
}

// levenshteinRatio is 1 - editDistance/maxLen over the whole forms.
func levenshteinRatio(q Form, v Form) float64 {
	if q.Text == "" || v.Text == "" {
		return 0
	}
	if q.Text == v.Text {
		return 1
	}
	longest := len([]rune(q.Text))
	if l := len([]rune(v.Text)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(q.Text, v.Text)
	return 1 - float64(dist)/float64(longest)
}

func jaroWinklerRatio(q Form, v Form) float64 {
	if q.Text == "" || v.Text == "" {
		return 0
	}
	return matchr.JaroWinkler(q.Text, v.Text, false)
}

// phoneticRatio grades partial phonetic agreement: the share of the larger
// key set that also occurs in the smaller one.
func phoneticRatio(q Form, v Form) float64 {
	if len(q.Keys) == 0 || len(v.Keys) == 0 {
		return 0
	}
	qset := make(map[string]struct{}, len(q.Keys))
	for _, k := range q.Keys {
		qset[k] = struct{}{}
	}
	vset := make(map[string]struct{}, len(v.Keys))
	for _, k := range v.Keys {
		vset[k] = struct{}{}
	}
	shared := 0
	for k := range vset {
		if _, ok := qset[k]; ok {
			shared++
		}
	}
	larger := len(qset)
	if len(vset) > larger {
		larger = len(vset)
	}
	return float64(shared) / float64(larger)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
