package models

// BatchState tracks one query through the batch pipeline.
type BatchState string

const (
	BatchPending   BatchState = "pending"
	BatchScoring   BatchState = "scoring"
	BatchCompleted BatchState = "completed"
	BatchFailed    BatchState = "failed"
)

// IsValid checks if the batch state is one of the supported enum values.
func (s BatchState) IsValid() bool {
	switch s {
	case BatchPending, BatchScoring, BatchCompleted, BatchFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s BatchState) IsTerminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

// BatchItem is the outcome of one query within a batch, at its input
// position. Completed items always carry a result set, possibly empty;
// failed items carry the per-item error without affecting siblings.
type BatchItem struct {
	Index  int             `json:"index"`
	Query  Query           `json:"query"`
	State  BatchState      `json:"state"`
	Result *MatchResultSet `json:"result,omitempty"`
	Err    error           `json:"-"`
}
