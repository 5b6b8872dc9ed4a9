// Command server runs the legal-process tracking service: a SQLite-backed
// ingestion pipeline over the public court search APIs plus the HTTP read
// surface for the reconciled view.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"juristrack/internal/platform/config"
	"juristrack/internal/platform/httpserver"
	"juristrack/internal/platform/logger"
	"juristrack/internal/platform/metrics"
	"juristrack/internal/platform/middleware"
	"juristrack/internal/process/handler"
	"juristrack/internal/process/ingest"
	"juristrack/internal/process/reconcile"
	"juristrack/internal/process/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if cfg.APIKey == "" {
		log.Warn("DATAJUD_API_KEY is not set; ingestion lookups will be rejected upstream")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	m := metrics.New()

	builder := reconcile.NewBuilder(st, cfg.SpreadsheetPath)
	cache := reconcile.NewCache(builder, log, m, st.Path(), cfg.SpreadsheetPath)

	client := ingest.NewClient(cfg.APIKey, cfg.LookupTimeout)
	runner := ingest.NewRunner(client, st, cache, log, m, cfg.LookupDelay)

	h := handler.New(st, cache, runner, log, handler.Config{
		SpreadsheetPath:  cfg.SpreadsheetPath,
		RunTimeout:       cfg.RunTimeout,
		DefaultPageLimit: cfg.DefaultPageLimit,
		MaxPageLimit:     cfg.MaxPageLimit,
	})

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RequestTime,
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.Timeout(60*time.Second),
	)
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "db", cfg.DBPath, "spreadsheet", cfg.SpreadsheetPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
