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
	"vigil/internal/screening/store/custom"
	"vigil/pkg/platform/httputil"
)

// CustomService defines the interface for custom-list management.
type CustomService interface {
	Create(ctx context.Context, record custom.Record) (custom.Record, error)
	Get(ctx context.Context, id string) (custom.Record, error)
	Update(ctx context.Context, record custom.Record) (custom.Record, error)
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context) ([]custom.Record, error)
}

// CustomHandler handles custom-list management endpoints.
type CustomHandler struct {
	logger       *slog.Logger
	custom       CustomService
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// NewCustom creates the custom-list Handler.
func NewCustom(
	custom CustomService,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *CustomHandler {
	return &CustomHandler{
		logger:       logger,
		custom:       custom,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the custom-list routes with the chi router.
func (h *CustomHandler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.ClientMetadata)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(10 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.LatencyMiddleware(h.metrics))
		if h.jwtValidator != nil {
			router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		}
		router.Post("/v1/custom-entities", h.handleCreate)
		router.Get("/v1/custom-entities", h.handleList)
		router.Get("/v1/custom-entities/{id}", h.handleGet)
		router.Put("/v1/custom-entities/{id}", h.handleUpdate)
		router.Delete("/v1/custom-entities/{id}", h.handleDeactivate)
	})
}

func (h *CustomHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[contracts.CustomEntityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := toCustomRecord(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	created, err := h.custom.Create(ctx, record)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCustomResponse(created))
}

func (h *CustomHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.custom.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomResponse(record))
}

func (h *CustomHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[contracts.CustomEntityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := toCustomRecord(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record.ID = chi.URLParam(r, "id")

	updated, err := h.custom.Update(ctx, record)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCustomResponse(updated))
}

func (h *CustomHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.custom.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.custom.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]contracts.CustomEntityResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toCustomResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
