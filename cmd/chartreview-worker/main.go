package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/config"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/corpus"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/database"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/logging"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/metrics"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/rowsource"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/storage"
	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/worker"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logging.Init("info", true)
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.LogLevel, true)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store := database.NewStore(db, m)
	if err := store.EnsureSchema(ctx, cfg.CreateDevTables); err != nil {
		log.Fatal().Err(err).Msg("schema setup failed")
	}

	merger, err := chartreview.NewMerger(cfg.MergeOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid merge options")
	}
	builder := corpus.NewBuilder(rowsource.NewReader(cfg.RowSource()), merger, m, cfg.MaxWorkers)

	w := worker.New(
		worker.Settings{WebhookSecret: cfg.WebhookSecret, TaskTimeout: cfg.TaskTimeout},
		store,
		storage.NewFetcher(cfg.S3(), storage.DefaultHTTPTimeout),
		builder,
		m,
		registry,
	)
	if cfg.WebhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET is not set; webhook signatures are not verified")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           w.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("chart-review ingestion worker starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}

	// Let accepted tasks record their outcome before the pool closes.
	w.Wait()
}
