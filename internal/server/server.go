package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emsdir/searchd/internal/cache"
	"github.com/emsdir/searchd/internal/config"
	"github.com/emsdir/searchd/internal/health"
	"github.com/emsdir/searchd/internal/middleware"
	"github.com/emsdir/searchd/internal/router"
	"github.com/emsdir/searchd/internal/search"
)

// Deps carries the wired components the HTTP surface serves.
type Deps struct {
	Engine  *search.Engine
	Cache   *cache.ResponseCache
	Pingers map[string]health.Pinger
}

// Run sets up the routes and serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(deps.Pingers))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/search", router.HandleSearch(logger, cfg, deps.Engine, deps.Cache, false))
	r.Get("/certifications/{slug}", router.HandleSearch(logger, cfg, deps.Engine, deps.Cache, true))
	r.Get("/map", router.HandleMap(logger, cfg, deps.Engine))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
