package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/peakline/corridor-vibes/internal/adapter/cotrip"
	httpadapter "github.com/peakline/corridor-vibes/internal/adapter/http"
	kafkaadapter "github.com/peakline/corridor-vibes/internal/adapter/kafka"
	"github.com/peakline/corridor-vibes/internal/adapter/openai"
	"github.com/peakline/corridor-vibes/internal/adapter/sqlite"
	"github.com/peakline/corridor-vibes/internal/config"
	"github.com/peakline/corridor-vibes/internal/domain"
	"github.com/peakline/corridor-vibes/internal/observability"
	"github.com/peakline/corridor-vibes/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open sqlite store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}

	feeds := cotrip.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey, cfg.FeedTimeout, logger, metrics)
	segments := config.NewSegmentFile(cfg.SegmentsFile)

	// Initialize incident normalization (feature-flagged via OPENAI_ENABLED /
	// OPENAI_API_KEY). Without a remote normalizer every incident falls back to
	// the keyword heuristics.
	var remote domain.TextNormalizer
	if cfg.OpenAIEnabled {
		remote = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.OpenAITimeout, logger, metrics)
		metrics.NormalizeEnabled.Set(1)
		logger.Info("openai normalization enabled", "model", cfg.OpenAIModel, "timeout", cfg.OpenAITimeout)
	} else {
		logger.Info("openai normalization disabled")
	}
	normalizer := domain.NewIncidentNormalizer(remote, store, cfg.OpenAITimeout, logger)

	var publisher pipeline.LivePublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka live publishing enabled", "topic", cfg.KafkaLiveTopic)
	} else {
		logger.Info("kafka live publishing disabled")
	}

	p := pipeline.New(feeds, segments, store, publisher, normalizer, logger, metrics,
		clockwork.NewRealClock(), cfg.RunInterval, cfg.HistoryWindow)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the scoring pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("sqlite store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
