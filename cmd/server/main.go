package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigil/internal/audit"
	"vigil/internal/platform/config"
	"vigil/internal/platform/httpserver"
	"vigil/internal/platform/logger"
	pmetrics "vigil/internal/platform/metrics"
	"vigil/internal/platform/middleware"
	"vigil/internal/platform/redis"
	"vigil/internal/screening/adapters"
	"vigil/internal/screening/handler"
	smetrics "vigil/internal/screening/metrics"
	"vigil/internal/screening/models"
	"vigil/internal/screening/ports"
	"vigil/internal/screening/service"
	"vigil/internal/screening/store/cache"
	"vigil/internal/screening/store/custom"
	"vigil/internal/screening/store/official"
	"vigil/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the screening packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := pmetrics.New()
	engineMetrics := smetrics.New()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
	}

	registry := adapters.NewRegistry()
	for _, tag := range models.OfficialSources {
		var store adapters.Store
		if db != nil {
			store = official.NewPostgres(db, tag)
		} else {
			store = official.NewInMemory(tag)
		}
		src, err := adapters.NewSource(store, log, engineMetrics,
			adapters.WithTimeout(cfg.Screening.FetchTimeout),
			adapters.WithBreaker(circuit.New(tag.String())),
		)
		if err != nil {
			return fmt.Errorf("source %s: %w", tag, err)
		}
		if err := registry.Register(src); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}

	var customStore service.CustomStore
	var customSourceStore adapters.Store
	if db != nil {
		pg := custom.NewPostgres(db)
		customStore, customSourceStore = pg, pg
	} else {
		mem := custom.NewInMemory()
		customStore, customSourceStore = mem, mem
	}
	customSource, err := adapters.NewSource(customSourceStore, log, engineMetrics,
		adapters.WithTimeout(cfg.Screening.FetchTimeout),
		adapters.WithBreaker(circuit.New(models.SourceCustom.String())),
	)
	if err != nil {
		return fmt.Errorf("custom source: %w", err)
	}

	// Audit: Kafka when brokers are configured, in-memory otherwise.
	var auditSink ports.AuditSink
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fmt.Errorf("audit publisher: %w", err)
		}
		defer publisher.Close()

		worker := audit.NewWorker(publisher, 256, log)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		auditSink = worker
	} else {
		auditSink = audit.NewMemorySink()
		log.Warn("no kafka brokers configured, audit events stay in memory")
	}

	defaults := models.DefaultSearchConfig()
	defaults.Threshold = cfg.Screening.Threshold
	defaults.MaxResults = cfg.Screening.MaxResults
	defaults.FetchTimeout = cfg.Screening.FetchTimeout

	opts := []service.Option{
		service.WithCustomSource(customSource),
		service.WithAuditSink(auditSink),
		service.WithDefaults(defaults),
	}

	// Result cache is optional.
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		resultCache, err := cache.New(rdb.Client, cfg.Screening.CacheTTL, engineMetrics)
		if err != nil {
			return fmt.Errorf("result cache: %w", err)
		}
		opts = append(opts, service.WithCache(resultCache))
	}

	screeningSvc, err := service.New(registry, log, engineMetrics, opts...)
	if err != nil {
		return fmt.Errorf("screening service: %w", err)
	}
	customSvc, err := service.NewCustom(customStore, log, engineMetrics,
		service.WithCustomAuditSink(auditSink))
	if err != nil {
		return fmt.Errorf("custom service: %w", err)
	}

	var validator middleware.JWTValidator
	if cfg.AuthRequired {
		validator, err = middleware.NewHMACValidator(cfg.JWTSigningKey)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	router := chi.NewRouter()
	handler.New(screeningSvc, log, httpMetrics, validator).Register(router)
	handler.NewCustom(customSvc, log, httpMetrics, validator).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/ready", readyHandler(registry, rdb))

	// Periodic health probes feed the circuit breakers so an open source
	// circuit can close again once the store recovers.
	go probeSources(ctx, registry, customSource)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting vigil", "addr", cfg.Addr, "postgres", db != nil, "cache", rdb != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func readyHandler(registry *adapters.Registry, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for _, src := range registry.All() {
			if err := src.Health(ctx); err != nil {
				http.Error(w, fmt.Sprintf("source %s not ready", src.Tag()), http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				http.Error(w, "cache not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func probeSources(ctx context.Context, registry *adapters.Registry, extra ports.Source) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			for _, src := range registry.All() {
				_ = src.Health(probeCtx)
			}
			if extra != nil {
				_ = extra.Health(probeCtx)
			}
			cancel()
		}
	}
}
