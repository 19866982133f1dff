// Package handler exposes the screening engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	contracts "vigil/contracts/screening"
	"vigil/internal/platform/metrics"
	"vigil/internal/platform/middleware"
	"vigil/internal/screening/models"
	"vigil/internal/screening/service"
	"vigil/pkg/platform/httputil"

	dErrors "vigil/pkg/domain-errors"
)

// Largest batch accepted in one call. Bigger jobs are split by the caller.
const maxBatchQueries = 500

// Service defines the interface for screening operations.
type Service interface {
	Defaults() models.SearchConfig
	Search(ctx context.Context, query models.Query, cfg models.SearchConfig) (*models.MatchResultSet, bool, error)
	SearchBatch(ctx context.Context, queries []models.Query, cfg models.SearchConfig) (*service.BatchOutcome, error)
	SourceStatuses(ctx context.Context) []service.SourceStatus
}

// Handler handles screening endpoints.
type Handler struct {
	logger       *slog.Logger
	screening    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new screening Handler. A nil validator disables auth, for
// development and tests.
func New(
	screening Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		screening:    screening,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the screening routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.ClientMetadata)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.LatencyMiddleware(h.metrics))
		if h.jwtValidator != nil {
			router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		}
		router.Post("/v1/screening/search", h.handleSearch)
		router.Post("/v1/screening/batch", h.handleBatch)
		router.Get("/v1/screening/sources", h.handleSources)
	})
}

// handleSearch screens one name.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[contracts.SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	query, err := toQuery(req.Name, req.SubjectType, req.DateOfBirth, req.Nationality)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cfg, err := applyOptions(h.screening.Defaults(), searchOptions{
		Threshold:      req.Threshold,
		MaxResults:     req.MaxResults,
		EnabledSources: req.EnabledSources,
		IncludeCustom:  req.IncludeCustom,
		MetricWeights:  req.MetricWeights,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	set, cached, err := h.screening.Search(ctx, query, cfg)
	if err != nil {
		h.logger.WarnContext(ctx, "search failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toSearchResponse(set, cached))
}

// handleBatch screens a list of names under one shared configuration.
func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[contracts.BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if len(req.Queries) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidQuery, "batch must contain at least one query"))
		return
	}
	if len(req.Queries) > maxBatchQueries {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidQuery, "batch exceeds %d queries", maxBatchQueries))
		return
	}

	queries := make([]models.Query, 0, len(req.Queries))
	for _, q := range req.Queries {
		query, err := toQuery(q.Name, q.SubjectType, q.DateOfBirth, q.Nationality)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		queries = append(queries, query)
	}

	cfg, err := applyOptions(h.screening.Defaults(), searchOptions{
		Threshold:      req.Threshold,
		MaxResults:     req.MaxResults,
		EnabledSources: req.EnabledSources,
		IncludeCustom:  req.IncludeCustom,
		MetricWeights:  req.MetricWeights,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.screening.SearchBatch(ctx, queries, cfg)
	if err != nil {
		h.logger.WarnContext(ctx, "batch failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(outcome))
}

// handleSources reports per-source health and entity counts.
func (h *Handler) handleSources(w http.ResponseWriter, r *http.Request) {
	statuses := h.screening.SourceStatuses(r.Context())
	httputil.WriteJSON(w, http.StatusOK, toSourcesResponse(statuses))
}
