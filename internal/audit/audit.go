// Package audit records screening activity. The engine itself never writes
// audit state; handlers and services hand events to a sink, and sinks fan
// out to memory (tests) or Kafka (production) off the request path.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/mssola/useragent"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// every screening decision belongs here, since compliance reviews must
	// reconstruct what was searched and what surfaced.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and
	// operational visibility, e.g. list snapshot replacements.
	CategoryOperations EventCategory = "operations"
)

// Action identifies what happened.
type Action string

const (
	ActionSearch          Action = "screening_search"
	ActionBatchSearch     Action = "screening_batch"
	ActionSnapshotReplace Action = "list_snapshot_replaced"
	ActionCustomCreated   Action = "custom_entity_created"
	ActionCustomUpdated   Action = "custom_entity_updated"
	ActionCustomRemoved   Action = "custom_entity_deactivated"
)

// Category returns the routing category for an action.
func (a Action) Category() EventCategory {
	switch a {
	case ActionSearch, ActionBatchSearch:
		return CategoryCompliance
	default:
		return CategoryOperations
	}
}

// Event is one audit record. The queried name is never stored raw; only
// its hash, so the trail carries no third-party PII.
type Event struct {
	Action    Action    `json:"action"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`

	// Correlation
	RequestID string `json:"request_id,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`

	// Who
	Subject  string `json:"subject,omitempty"`
	ClientIP string `json:"client_ip,omitempty"`
	Browser  string `json:"browser,omitempty"`
	OS       string `json:"os,omitempty"`

	// What
	QueryHash   string  `json:"query_hash,omitempty"`
	EntityID    string  `json:"entity_id,omitempty"`
	ResultCount int     `json:"result_count"`
	TopScore    float64 `json:"top_score,omitempty"`
	Warnings    int     `json:"warnings,omitempty"`
	DurationMS  int64   `json:"duration_ms,omitempty"`
}

// HashQuery produces the stable fingerprint stored instead of the raw name.
func HashQuery(name string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
	return hex.EncodeToString(sum[:])
}

// WithClient enriches an event with client metadata, parsing the User-Agent
// into its browser and OS families.
func (e Event) WithClient(clientIP, rawUserAgent string) Event {
	e.ClientIP = clientIP
	if rawUserAgent != "" {
		ua := useragent.New(rawUserAgent)
		name, version := ua.Browser()
		e.Browser = strings.TrimSpace(name + " " + version)
		e.OS = ua.OS()
	}
	return e
}
