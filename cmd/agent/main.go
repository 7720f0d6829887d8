package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-agent/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-agent/internal/adapter/kafka"
	"github.com/couchcryptid/quake-agent/internal/adapter/usgs"
	"github.com/couchcryptid/quake-agent/internal/agent"
	"github.com/couchcryptid/quake-agent/internal/config"
	"github.com/couchcryptid/quake-agent/internal/domain"
	"github.com/couchcryptid/quake-agent/internal/observability"
	"github.com/couchcryptid/quake-agent/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, clock, metrics, logger)
	var source domain.EventSource = client
	if cfg.USGSCacheSize > 0 {
		source = usgs.NewCachedSource(client, cfg.USGSCacheSize, cfg.USGSCacheTTL, clock, metrics)
		logger.Info("usgs response cache enabled", "cache_size", cfg.USGSCacheSize, "ttl", cfg.USGSCacheTTL)
	} else {
		logger.Info("usgs response cache disabled")
	}
	router := agent.NewRouter(source, logger, metrics)

	// Build Kafka query pipeline (feature-flagged via KAFKA_ENABLED).
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	ready := []sharedobs.ReadinessChecker{router}
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(router, clock, logger)
		p = pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		logger.Info("kafka query pipeline enabled",
			"brokers", cfg.KafkaBrokers,
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
		)
	} else {
		logger.Info("kafka query pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, router, observability.AllReady(ready...), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := client.Close(); err != nil {
		logger.Error("usgs client close error", "error", err)
	}

	logger.Info("shutdown complete")
}
