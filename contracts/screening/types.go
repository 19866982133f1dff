// Package screening defines the wire-level request and response types for the
// screening API. It is a standalone module so external consumers can depend on
// the contract without importing the service implementation.
package screening

// SearchRequest is the body of POST /v1/screening/search.
type SearchRequest struct {
	Name            string             `json:"name"`
	SubjectType     string             `json:"subject_type,omitempty"` // individual|entity|unknown
	DateOfBirth     string             `json:"date_of_birth,omitempty"`
	Nationality     string             `json:"nationality,omitempty"`
	Threshold       *float64           `json:"threshold,omitempty"`
	MaxResults      *int               `json:"max_results,omitempty"`
	EnabledSources  []string           `json:"enabled_sources,omitempty"`
	IncludeCustom   *bool              `json:"include_custom,omitempty"`
	MetricWeights   map[string]float64 `json:"metric_weights,omitempty"`
}

// BatchQuery is one name to screen within a batch.
type BatchQuery struct {
	Name        string `json:"name"`
	SubjectType string `json:"subject_type,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// BatchRequest is the body of POST /v1/screening/batch. Options apply to
// every query in the batch; batches needing different tuning are split.
type BatchRequest struct {
	Queries        []BatchQuery       `json:"queries"`
	Threshold      *float64           `json:"threshold,omitempty"`
	MaxResults     *int               `json:"max_results,omitempty"`
	EnabledSources []string           `json:"enabled_sources,omitempty"`
	IncludeCustom  *bool              `json:"include_custom,omitempty"`
	MetricWeights  map[string]float64 `json:"metric_weights,omitempty"`
}

// Match is a single scored candidate in a response.
type Match struct {
	EntityID     string             `json:"entity_id"`
	Source       string             `json:"source"`
	SubjectType  string             `json:"subject_type"`
	PrimaryName  string             `json:"primary_name"`
	MatchedName  string             `json:"matched_name"`
	MatchedKind  string             `json:"matched_kind"` // primary|alias|weak_alias
	Confidence   float64            `json:"confidence"`
	MetricScores map[string]float64 `json:"metric_scores"`
	Degraded     bool               `json:"degraded,omitempty"`
}

// Warning is an advisory attached to a response, e.g. a source that could not
// be read in time. Results are still valid for the remaining sources.
type Warning struct {
	Code    string `json:"code"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

// SearchResponse is the body returned for a single query.
type SearchResponse struct {
	Query    string    `json:"query"`
	Matches  []Match   `json:"matches"`
	Warnings []Warning `json:"warnings,omitempty"`
	Cached   bool      `json:"cached,omitempty"`
}

// BatchItemResponse is one entry of a batch response, in input order.
type BatchItemResponse struct {
	Index    int             `json:"index"`
	Query    string          `json:"query"`
	State    string          `json:"state"` // completed|failed
	Result   *SearchResponse `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	ErrorMsg string          `json:"error_description,omitempty"`
}

// BatchResponse is the body of POST /v1/screening/batch.
type BatchResponse struct {
	BatchID string              `json:"batch_id"`
	Items   []BatchItemResponse `json:"items"`
}

// SourceStatus reports the health of one candidate source.
type SourceStatus struct {
	Source      string `json:"source"`
	Healthy     bool   `json:"healthy"`
	EntityCount int    `json:"entity_count"`
	Detail      string `json:"detail,omitempty"`
}

// SourcesResponse is the body of GET /v1/screening/sources.
type SourcesResponse struct {
	Sources []SourceStatus `json:"sources"`
}

// CustomEntityRequest is the body for creating or updating a custom-list entry.
type CustomEntityRequest struct {
	PrimaryName string   `json:"primary_name"`
	Aliases     []string `json:"aliases,omitempty"`
	SubjectType string   `json:"subject_type"`
	Nationality string   `json:"nationality,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// CustomEntityResponse echoes a stored custom-list entry.
type CustomEntityResponse struct {
	ID          string   `json:"id"`
	PrimaryName string   `json:"primary_name"`
	Aliases     []string `json:"aliases,omitempty"`
	SubjectType string   `json:"subject_type"`
	Nationality string   `json:"nationality,omitempty"`
	DateOfBirth string   `json:"date_of_birth,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Active      bool     `json:"active"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}
