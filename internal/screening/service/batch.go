package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"vigil/internal/audit"
	"vigil/internal/screening/models"
	"vigil/pkg/requestcontext"

	dErrors "vigil/pkg/domain-errors"
)

// BatchOutcome is the result of one batch call: every query at its input
// position, each in a terminal state.
type BatchOutcome struct {
	BatchID string
	Items   []models.BatchItem
}

// SearchBatch screens a list of queries under one shared configuration.
// Items are isolated: a failing query is marked failed and its siblings
// still complete. Cancellation is cooperative; queries already finished
// keep their results and the remainder stay pending.
func (s *Service) SearchBatch(ctx context.Context, queries []models.Query, cfg models.SearchConfig) (*BatchOutcome, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "screening.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("screening.batch_size", len(queries)))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidQuery, "batch must contain at least one query")
	}

	outcome := &BatchOutcome{
		BatchID: uuid.NewString(),
		Items:   make([]models.BatchItem, len(queries)),
	}
	for i, q := range queries {
		outcome.Items[i] = models.BatchItem{Index: i, Query: q, State: models.BatchPending}
	}

	for i := range outcome.Items {
		// Check between items, not mid-item: a query that started scoring
		// runs to completion.
		if err := ctx.Err(); err != nil {
			s.logger.WarnContext(ctx, "batch cancelled",
				"batch_id", outcome.BatchID,
				"completed", i,
				"remaining", len(outcome.Items)-i,
			)
			break
		}

		item := &outcome.Items[i]
		item.State = models.BatchScoring
		set, _, err := s.Search(ctx, item.Query, cfg)
		if err != nil {
			item.State = models.BatchFailed
			item.Err = err
		} else {
			item.State = models.BatchCompleted
			item.Result = set
		}
		s.metrics.RecordBatchQuery(string(item.State))
	}

	s.emitBatchAudit(ctx, outcome, time.Since(start))
	return outcome, nil
}

func (s *Service) emitBatchAudit(ctx context.Context, outcome *BatchOutcome, elapsed time.Duration) {
	if s.audit == nil {
		return
	}
	completed := 0
	for _, item := range outcome.Items {
		if item.State == models.BatchCompleted {
			completed++
		}
	}
	event := audit.Event{
		Action:      audit.ActionBatchSearch,
		Category:    string(audit.ActionBatchSearch.Category()),
		Timestamp:   time.Now().UTC(),
		RequestID:   requestcontext.RequestID(ctx),
		BatchID:     outcome.BatchID,
		Subject:     requestcontext.Subject(ctx),
		ResultCount: completed,
		DurationMS:  elapsed.Milliseconds(),
	}
	event = event.WithClient(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))
	s.audit.Emit(ctx, event)
}
