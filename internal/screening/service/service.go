// Package service implements the screening engine's orchestration layer:
// fan-out to candidate sources, scoring, ranking, caching and audit.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vigil/internal/audit"
	"vigil/internal/screening/adapters"
	"vigil/internal/screening/match"
	"vigil/internal/screening/metrics"
	"vigil/internal/screening/models"
	"vigil/internal/screening/normalize"
	"vigil/internal/screening/ports"
	"vigil/pkg/requestcontext"

	dErrors "vigil/pkg/domain-errors"
)

// Candidate volume above which the phonetic blocking pre-filter kicks in.
// Below it, scoring everything is cheaper than filtering.
const blockingMinCandidates = 200

// Service coordinates a screening call end to end. Sources are read
// concurrently; a source failure degrades the result set with a warning
// instead of failing the call.
type Service struct {
	registry *adapters.Registry
	custom   ports.Source
	cache    ports.ResultCache
	audit    ports.AuditSink
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	defaults models.SearchConfig
}

// Option configures the Service.
type Option func(*Service)

// WithCustomSource attaches the user-managed list as an additional source.
func WithCustomSource(src ports.Source) Option {
	return func(s *Service) { s.custom = src }
}

// WithCache attaches a result cache. Cache failures degrade to misses.
func WithCache(cache ports.ResultCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithAuditSink attaches the audit trail.
func WithAuditSink(sink ports.AuditSink) Option {
	return func(s *Service) { s.audit = sink }
}

// WithDefaults overrides the built-in default search configuration.
func WithDefaults(cfg models.SearchConfig) Option {
	return func(s *Service) { s.defaults = cfg }
}

// New creates the screening service.
func New(registry *adapters.Registry, logger *slog.Logger, m *metrics.Metrics, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("screening service: registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("screening service: logger is required")
	}
	if m == nil {
		return nil, fmt.Errorf("screening service: metrics are required")
	}
	s := &Service{
		registry: registry,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("vigil/screening"),
		defaults: models.DefaultSearchConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Defaults returns the service-wide default configuration. Callers overlay
// per-request options on top of it.
func (s *Service) Defaults() models.SearchConfig {
	return s.defaults
}

// Search screens one name against the enabled sources. The returned bool
// reports whether the result set was served from cache.
func (s *Service) Search(ctx context.Context, query models.Query, cfg models.SearchConfig) (*models.MatchResultSet, bool, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "screening.search")
	defer span.End()

	if err := cfg.Validate(); err != nil {
		s.metrics.RecordSearch("invalid", time.Since(start), 0, 0)
		return nil, false, err
	}
	if err := query.Validate(); err != nil {
		s.metrics.RecordSearch("invalid", time.Since(start), 0, 0)
		return nil, false, err
	}

	forms, err := match.BuildForms(query.Name)
	if err != nil {
		s.metrics.RecordSearch("invalid", time.Since(start), 0, 0)
		return nil, false, err
	}

	key := fingerprint(query, cfg)
	if s.cache != nil {
		if set, hit, cacheErr := s.cache.Get(ctx, key); cacheErr == nil && hit {
			s.metrics.RecordSearch("cached", time.Since(start), 0, len(set.Results))
			return set, true, nil
		}
	}

	candidates, warnings := s.fetchCandidates(ctx, query.SubjectType, cfg)
	if ctx.Err() != nil {
		s.metrics.RecordSearch("error", time.Since(start), len(candidates), 0)
		return nil, false, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "search cancelled")
	}
	span.SetAttributes(attribute.Int("screening.candidates", len(candidates)))

	if len(candidates) > blockingMinCandidates {
		candidates = blockCandidates(forms, candidates)
	}

	results := make([]models.MatchResult, 0, len(candidates))
	for _, entity := range candidates {
		result := match.Evaluate(query, forms, entity, cfg)
		if result.Degraded {
			s.metrics.RecordDegraded()
		}
		results = append(results, result)
	}

	ranked := match.Rank(results, cfg)
	set := &models.MatchResultSet{Query: query, Results: ranked, Warnings: warnings}

	if s.cache != nil && len(warnings) == 0 {
		// Partial result sets are not cached; a recovered source would
		// otherwise stay invisible until expiry.
		if cacheErr := s.cache.Set(ctx, key, set); cacheErr != nil {
			s.logger.DebugContext(ctx, "result cache write failed", "error", cacheErr)
		}
	}

	span.SetAttributes(attribute.Int("screening.results", len(ranked)))
	s.metrics.RecordSearch("success", time.Since(start), len(candidates), len(ranked))
	s.emitSearchAudit(ctx, audit.ActionSearch, "", query, set, time.Since(start))

	return set, false, nil
}

// fetchCandidates reads every enabled source concurrently. Failed sources
// contribute a warning; their entities are simply absent.
func (s *Service) fetchCandidates(ctx context.Context, hint models.SubjectType, cfg models.SearchConfig) ([]models.Entity, []models.Warning) {
	sources := s.registry.Enabled(cfg)
	if cfg.IncludeCustom && s.custom != nil {
		sources = append(sources, s.custom)
	}

	perSource := make([][]models.Entity, len(sources))
	failures := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			entities, err := src.FetchActive(gctx, hint)
			if err != nil {
				failures[i] = err
				return nil
			}
			perSource[i] = entities
			return nil
		})
	}
	_ = g.Wait()

	var candidates []models.Entity
	var warnings []models.Warning
	for i, src := range sources {
		if err := failures[i]; err != nil {
			s.metrics.RecordSourceFailure(src.Tag().String())
			s.logger.WarnContext(ctx, "source unavailable, continuing without it",
				"source", src.Tag(),
				"category", adapters.GetCategory(err),
				"error", err,
			)
			warnings = append(warnings, models.Warning{
				Code:    dErrors.CodeSourceUnavailable,
				Source:  src.Tag(),
				Message: fmt.Sprintf("source %s skipped: %s", src.Tag(), adapters.GetCategory(err)),
			})
			continue
		}
		candidates = append(candidates, perSource[i]...)
	}
	return candidates, warnings
}

// blockCandidates keeps only entities sharing at least one phonetic key with
// the query. Blocking reduces scoring work; it never affects which metrics
// run on the survivors.
func blockCandidates(forms []match.Form, candidates []models.Entity) []models.Entity {
	kept := make([]models.Entity, 0, len(candidates))
	for _, entity := range candidates {
		if match.SharesPhoneticKey(forms, entity) {
			kept = append(kept, entity)
		}
	}
	return kept
}

func (s *Service) emitSearchAudit(ctx context.Context, action audit.Action, batchID string, query models.Query, set *models.MatchResultSet, elapsed time.Duration) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Action:      action,
		Category:    string(action.Category()),
		Timestamp:   time.Now().UTC(),
		RequestID:   requestcontext.RequestID(ctx),
		BatchID:     batchID,
		Subject:     requestcontext.Subject(ctx),
		QueryHash:   audit.HashQuery(query.Name),
		ResultCount: len(set.Results),
		Warnings:    len(set.Warnings),
		DurationMS:  elapsed.Milliseconds(),
	}
	if len(set.Results) > 0 {
		event.TopScore = set.Results[0].Confidence
	}
	event = event.WithClient(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))
	s.audit.Emit(ctx, event)
}

// SourceStatus reports one source's health for the sources endpoint.
type SourceStatus struct {
	Source      models.SourceTag
	Healthy     bool
	EntityCount int
	Detail      string
}

// SourceStatuses probes every registered source, custom list included.
func (s *Service) SourceStatuses(ctx context.Context) []SourceStatus {
	sources := s.registry.All()
	if s.custom != nil {
		sources = append(sources, s.custom)
	}

	statuses := make([]SourceStatus, len(sources))
	for i, src := range sources {
		status := SourceStatus{Source: src.Tag(), Healthy: true}
		if err := src.Health(ctx); err != nil {
			status.Healthy = false
			status.Detail = err.Error()
		} else if count, err := src.Count(ctx); err == nil {
			status.EntityCount = count
		}
		statuses[i] = status
	}
	return statuses
}

// fingerprint derives the cache key from everything that can change the
// result set: the normalized query and the full matching configuration.
// Keying on the normalized name lets spelling-equivalent queries share an
// entry.
func fingerprint(query models.Query, cfg models.SearchConfig) string {
	query.Name = normalize.Base(query.Name)
	payload, _ := json.Marshal(struct {
		Query models.Query
		Cfg   models.SearchConfig
	}{query, cfg})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
