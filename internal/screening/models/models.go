// Package models defines the screening domain model: queries, sanctioned
// entities with their name variants, and scored match results.
package models

import (
	"strings"

	dErrors "vigil/pkg/domain-errors"
)

// SubjectType classifies who or what a name refers to.
type SubjectType string

const (
	SubjectIndividual SubjectType = "individual"
	SubjectEntity     SubjectType = "entity"
	SubjectOther      SubjectType = "other"
	// SubjectUnknown is used on queries when the caller has no hint.
	SubjectUnknown SubjectType = "unknown"
)

// IsValid checks if the subject type is one of the supported enum values.
func (s SubjectType) IsValid() bool {
	switch s {
	case SubjectIndividual, SubjectEntity, SubjectOther, SubjectUnknown:
		return true
	}
	return false
}

// ParseSubjectType creates a SubjectType from a string, defaulting empty
// input to SubjectUnknown. Returns an error for unrecognized values.
func ParseSubjectType(s string) (SubjectType, error) {
	if s == "" {
		return SubjectUnknown, nil
	}
	t := SubjectType(strings.ToLower(s))
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid subject type: %q", s)
	}
	return t, nil
}

// Matches reports whether an entity's subject type corroborates a query
// hint. An unknown hint never corroborates (and never contradicts).
func (s SubjectType) Matches(hint SubjectType) bool {
	if hint == SubjectUnknown || hint == "" {
		return false
	}
	return s == hint
}

// SourceTag identifies which list an entity came from.
type SourceTag string

const (
	SourceEU     SourceTag = "EU"
	SourceUN     SourceTag = "UN"
	SourceOFAC   SourceTag = "OFAC"
	SourceCustom SourceTag = "CUSTOM"
)

// IsValid checks if the source tag is one of the supported enum values.
func (t SourceTag) IsValid() bool {
	switch t {
	case SourceEU, SourceUN, SourceOFAC, SourceCustom:
		return true
	}
	return false
}

// ParseSourceTag creates a SourceTag from a string, case-insensitively.
func ParseSourceTag(s string) (SourceTag, error) {
	t := SourceTag(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid source tag: %q", s)
	}
	return t, nil
}

// String returns the string representation.
func (t SourceTag) String() string {
	return string(t)
}

// OfficialSources are the list sources maintained by the refresh process, as
// opposed to the user-managed custom list.
var OfficialSources = []SourceTag{SourceEU, SourceUN, SourceOFAC}

// VariantKind distinguishes how strongly a recorded name identifies its entity.
type VariantKind string

const (
	KindPrimary VariantKind = "primary"
	KindAlias   VariantKind = "alias"
	// KindWeakAlias marks low-quality aliases (nicknames, partial names)
	// carried by some official lists.
	KindWeakAlias VariantKind = "weak_alias"
)

// IsValid checks if the variant kind is one of the supported enum values.
func (k VariantKind) IsValid() bool {
	switch k {
	case KindPrimary, KindAlias, KindWeakAlias:
		return true
	}
	return false
}

// NameVariant is one recorded name of an entity. A variant belongs to exactly
// one entity.
type NameVariant struct {
	Text string      `json:"text"`
	Kind VariantKind `json:"kind"`
}

// EntityDetails carries optional structured attributes used only for
// secondary corroboration, never for primary matching.
type EntityDetails struct {
	Nationality string   `json:"nationality,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"` // ISO 8601 date
	Addresses   []string `json:"addresses,omitempty"`
}

// Entity is the unified read-side view of a sanctioned or restricted party,
// regardless of which list it came from.
type Entity struct {
	ID          string        `json:"id"`
	Source      SourceTag     `json:"source"`
	SubjectType SubjectType   `json:"subject_type"`
	Active      bool          `json:"active"`
	Names       []NameVariant `json:"names"`
	Details     EntityDetails `json:"details,omitempty"`
}

// PrimaryName returns the entity's primary name, or the first recorded name
// when no primary is present (which Validate rejects for stored entities).
func (e Entity) PrimaryName() string {
	for _, n := range e.Names {
		if n.Kind == KindPrimary {
			return n.Text
		}
	}
	if len(e.Names) > 0 {
		return e.Names[0].Text
	}
	return ""
}

// Validate enforces the structural invariants for a stored entity.
func (e Entity) Validate() error {
	if e.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "entity ID must not be empty")
	}
	if !e.Source.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid source tag: %q", e.Source)
	}
	if e.SubjectType != "" && !e.SubjectType.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid subject type: %q", e.SubjectType)
	}
	hasPrimary := false
	for _, n := range e.Names {
		if strings.TrimSpace(n.Text) == "" {
			return dErrors.New(dErrors.CodeValidation, "name variant text must not be empty")
		}
		if !n.Kind.IsValid() {
			return dErrors.Newf(dErrors.CodeValidation, "invalid name variant kind: %q", n.Kind)
		}
		if n.Kind == KindPrimary {
			hasPrimary = true
		}
	}
	if !hasPrimary {
		return dErrors.New(dErrors.CodeValidation, "entity must have at least one primary name")
	}
	return nil
}

// Query is one screening request. Immutable once submitted to the pipeline.
type Query struct {
	Name        string      `json:"name"`
	SubjectType SubjectType `json:"subject_type,omitempty"`
	DateOfBirth string      `json:"date_of_birth,omitempty"`
	Nationality string      `json:"nationality,omitempty"`
}

// Validate rejects queries that cannot reach scoring.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidQuery, "query name must not be empty")
	}
	if q.SubjectType != "" && !q.SubjectType.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidQuery, "invalid subject type hint: %q", q.SubjectType)
	}
	return nil
}

// Metric names produced by the scorer. Weight configuration refers to these.
const (
	MetricTokenSet    = "token_set"
	MetricLevenshtein = "levenshtein"
	MetricJaroWinkler = "jaro_winkler"
	MetricPhonetic    = "phonetic"
)

// KnownMetrics lists every metric the scorer can produce.
var KnownMetrics = []string{MetricTokenSet, MetricLevenshtein, MetricJaroWinkler, MetricPhonetic}

// MetricScores maps metric name to a score in [0,1].
type MetricScores map[string]float64

// MatchResult is one scored candidate for a query. Scores holds the
// unweighted per-metric breakdown; Confidence is the weighted aggregate.
type MatchResult struct {
	Entity         Entity       `json:"entity"`
	MatchedName    NameVariant  `json:"matched_name"`
	Scores         MetricScores `json:"scores"`
	Confidence     float64      `json:"confidence"`
	SubjectMatched bool         `json:"subject_matched"`
	DetailsMatched bool         `json:"details_matched"`
	// Degraded marks results where one or more metrics failed and were
	// dropped from aggregation rather than aborting the query.
	Degraded       bool     `json:"degraded,omitempty"`
	DroppedMetrics []string `json:"dropped_metrics,omitempty"`
}

// Warning is an advisory attached to a result set, e.g. a source that was
// skipped because it could not be read within its budget.
type Warning struct {
	Code    dErrors.Code `json:"code"`
	Source  SourceTag    `json:"source,omitempty"`
	Message string       `json:"message"`
}

// MatchResultSet is the ordered outcome of one query: results descending by
// confidence, deduplicated per entity, plus any advisory warnings.
type MatchResultSet struct {
	Query    Query         `json:"query"`
	Results  []MatchResult `json:"results"`
	Warnings []Warning     `json:"warnings,omitempty"`
}
