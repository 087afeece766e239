// Package server exposes preference snapshots over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tranvictor/ensprefs/util/cache"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	ListenAddress  string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	RateLimit      RateLimit
	LogRequests    bool
}

// NewRouter wires the routes. Each route is instrumented once: /healthz
// and /metrics as "root", /api/resolve as "resolve".
func NewRouter(cfg Config, loader SnapshotLoader, obs *Observability, logger *slog.Logger) (http.Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *RateLimiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		var err error
		if limiter, err = NewRateLimiter(cfg.RateLimit); err != nil {
			return nil, err
		}
	}

	r := chi.NewRouter()
	r.Use(RequestIDs)

	r.Group(func(gr chi.Router) {
		if obs != nil {
			gr.Use(obs.Middleware("root"))
			gr.Handle("/metrics", obs.MetricsHandler())
		}
		gr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	})

	var onOutcome func(string)
	if obs != nil {
		onOutcome = obs.Outcome
	}
	resolve := NewResolveHandler(loader, cache.New[ResolveResponse](cfg.CacheTTL), cfg.RequestTimeout, logger, onOutcome)

	r.Route("/api", func(sr chi.Router) {
		if limiter != nil {
			sr.Use(limiter.Middleware)
		}
		if obs != nil {
			sr.Use(obs.Middleware("resolve"))
		}
		// every method lands here so non-GET gets the JSON 405
		sr.Handle("/resolve", resolve)
	})
	return r, nil
}

// Run serves handler until ctx is cancelled.
func Run(ctx context.Context, listen string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("http server listening", "address", listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}
