package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vigil/internal/audit"
	"vigil/internal/screening/metrics"
	"vigil/internal/screening/ports"
	"vigil/internal/screening/store/custom"
	"vigil/pkg/platform/sentinel"
	"vigil/pkg/requestcontext"

	dErrors "vigil/pkg/domain-errors"
)

// CustomStore is the persistence interface for user-managed entries.
type CustomStore interface {
	Create(ctx context.Context, record custom.Record) (custom.Record, error)
	Get(ctx context.Context, id string) (custom.Record, error)
	Update(ctx context.Context, record custom.Record) (custom.Record, error)
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]custom.Record, error)
	Count(ctx context.Context) (int, error)
}

// CustomService manages the user-maintained screening list. Entries are
// soft-deleted; a deactivated entry stays listable but never reaches
// scoring again.
type CustomService struct {
	store   CustomStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   ports.AuditSink
}

// CustomOption configures the CustomService.
type CustomOption func(*CustomService)

// WithCustomAuditSink attaches the audit trail to list management.
func WithCustomAuditSink(sink ports.AuditSink) CustomOption {
	return func(s *CustomService) { s.audit = sink }
}

// NewCustom creates the custom-list management service.
func NewCustom(store CustomStore, logger *slog.Logger, m *metrics.Metrics, opts ...CustomOption) (*CustomService, error) {
	if store == nil {
		return nil, fmt.Errorf("custom service: store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("custom service: logger is required")
	}
	if m == nil {
		return nil, fmt.Errorf("custom service: metrics are required")
	}
	s := &CustomService{store: store, logger: logger, metrics: m}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and stores a new entry.
func (s *CustomService) Create(ctx context.Context, record custom.Record) (custom.Record, error) {
	if err := validateRecord(record); err != nil {
		return custom.Record{}, err
	}

	created, err := s.store.Create(ctx, record)
	if err != nil {
		return custom.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "create custom entry")
	}

	s.refreshActiveGauge(ctx)
	s.emitCustomAudit(ctx, audit.ActionCustomCreated, created.ID)
	return created, nil
}

// Get returns one entry by ID.
func (s *CustomService) Get(ctx context.Context, id string) (custom.Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return custom.Record{}, dErrors.Newf(dErrors.CodeNotFound, "custom entry %s not found", id)
		}
		return custom.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "get custom entry")
	}
	return record, nil
}

// Update replaces the mutable fields of an existing entry.
func (s *CustomService) Update(ctx context.Context, record custom.Record) (custom.Record, error) {
	if strings.TrimSpace(record.ID) == "" {
		return custom.Record{}, dErrors.New(dErrors.CodeInvalidInput, "custom entry ID is required")
	}
	if err := validateRecord(record); err != nil {
		return custom.Record{}, err
	}

	updated, err := s.store.Update(ctx, record)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return custom.Record{}, dErrors.Newf(dErrors.CodeNotFound, "custom entry %s not found", record.ID)
		}
		return custom.Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "update custom entry")
	}

	s.emitCustomAudit(ctx, audit.ActionCustomUpdated, updated.ID)
	return updated, nil
}

// Deactivate soft-deletes an entry.
func (s *CustomService) Deactivate(ctx context.Context, id string) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "custom entry %s not found", id)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "deactivate custom entry")
	}

	s.refreshActiveGauge(ctx)
	s.emitCustomAudit(ctx, audit.ActionCustomRemoved, id)
	return nil
}

// List returns every entry, active and deactivated.
func (s *CustomService) List(ctx context.Context) ([]custom.Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list custom entries")
	}
	return records, nil
}

func (s *CustomService) refreshActiveGauge(ctx context.Context) {
	if count, err := s.store.Count(ctx); err == nil {
		s.metrics.SetActiveCustomEntities(count)
	}
}

func (s *CustomService) emitCustomAudit(ctx context.Context, action audit.Action, entityID string) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		Category:  string(action.Category()),
		Timestamp: time.Now().UTC(),
		RequestID: requestcontext.RequestID(ctx),
		Subject:   requestcontext.Subject(ctx),
		EntityID:  entityID,
	}
	event = event.WithClient(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))
	s.audit.Emit(ctx, event)
}

func validateRecord(record custom.Record) error {
	if strings.TrimSpace(record.PrimaryName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "primary name is required")
	}
	if record.SubjectType != "" && !record.SubjectType.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid subject type %q", record.SubjectType)
	}
	for _, alias := range record.Aliases {
		if strings.TrimSpace(alias) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "aliases must not be blank")
		}
	}
	return nil
}
