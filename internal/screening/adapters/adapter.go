// Package adapters wraps list stores behind the uniform Source interface,
// adding the bounded fetch timeout and circuit breaking that keep one bad
// source from sinking a query.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vigil/internal/screening/metrics"
	"vigil/internal/screening/models"
	"vigil/internal/screening/ports"
	"vigil/pkg/platform/circuit"
)

// Store is the read contract a list store must satisfy to be adapted.
type Store interface {
	Tag() models.SourceTag
	FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error)
	Count(ctx context.Context) (int, error)
	Health(ctx context.Context) error
}

// SourceAdapter implements ports.Source over a Store, enforcing the fetch
// budget. Repeated failures open a circuit breaker so a dead store is
// skipped immediately instead of burning its full timeout on every query;
// Health probes close it again.
type SourceAdapter struct {
	store   Store
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a SourceAdapter.
type Option func(*SourceAdapter)

// WithTimeout overrides the default fetch budget.
func WithTimeout(d time.Duration) Option {
	return func(a *SourceAdapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithBreaker replaces the default circuit breaker, mainly for tests.
func WithBreaker(b *circuit.Breaker) Option {
	return func(a *SourceAdapter) {
		if b != nil {
			a.breaker = b
		}
	}
}

// NewSource adapts a list store. All dependencies are required.
func NewSource(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) (*SourceAdapter, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics is required")
	}

	a := &SourceAdapter{
		store:   store,
		timeout: models.DefaultFetchTimeout,
		breaker: circuit.New(string(store.Tag()), circuit.WithFailureThreshold(3)),
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Tag identifies which list this source serves.
func (a *SourceAdapter) Tag() models.SourceTag {
	return a.store.Tag()
}

// FetchActive reads the active entities within the fetch budget. An open
// circuit fails immediately; a timeout or store failure is categorized and
// recorded against the breaker.
func (a *SourceAdapter) FetchActive(ctx context.Context, hint models.SubjectType) ([]models.Entity, error) {
	tag := string(a.Tag())

	if a.breaker.IsOpen() {
		a.metrics.RecordSourceFailure(tag)
		return nil, NewSourceError(ErrorCircuitOpen, tag, "source skipped, circuit open", nil)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	entities, err := a.store.FetchActive(fetchCtx, hint)
	if err != nil {
		a.metrics.RecordSourceFailure(tag)
		_, change := a.breaker.RecordFailure()
		if change.Opened {
			a.logger.WarnContext(ctx, "source circuit opened",
				"source", tag,
			)
		}

		category := ErrorOutage
		message := "source read failed"
		if errors.Is(err, context.DeadlineExceeded) {
			category = ErrorTimeout
			message = fmt.Sprintf("source read exceeded %s budget", a.timeout)
		}
		return nil, NewSourceError(category, tag, message, err)
	}

	a.breaker.RecordSuccess()
	return entities, nil
}

// Count reports the active entity count within the fetch budget.
func (a *SourceAdapter) Count(ctx context.Context) (int, error) {
	countCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.store.Count(countCtx)
}

// Health probes the backing store and feeds the breaker, so periodic health
// checks are also the recovery path for an open circuit.
func (a *SourceAdapter) Health(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.store.Health(healthCtx); err != nil {
		a.breaker.RecordFailure()
		return NewSourceError(ErrorOutage, string(a.Tag()), "health check failed", err)
	}

	_, change := a.breaker.RecordSuccess()
	if change.Closed {
		a.logger.InfoContext(ctx, "source circuit closed",
			"source", a.Tag(),
		)
	}
	return nil
}

var _ ports.Source = (*SourceAdapter)(nil)
