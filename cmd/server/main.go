// Package main runs the attribution service:
// - HTTP API (attribution, tracking, analytics, metrics)
// - Streaming ingestion (Kafka, WebSocket) when configured
// - Scheduled attribution pipeline when enabled
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"marketing-attribution/internal/config"
	"marketing-attribution/internal/engine"
	"marketing-attribution/internal/httpapi"
	"marketing-attribution/internal/ingestion"
	"marketing-attribution/internal/observability"
	"marketing-attribution/internal/orchestrator"
)

func main() {
	configPath := flag.String("config", os.Getenv("ATTRIBUTION_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides http.addr)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("shutdown complete")
}

func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	m := observability.NewMetrics(observability.DefaultNamespace, nil)

	stores, cleanup, err := createStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer cleanup()

	tracker, closeDeduper := newTracker(cfg.Redis, stores, m)
	defer closeDeduper()

	eng := engine.New(engine.Options{Defaults: cfg.Attribution.Options, Workers: cfg.Attribution.Workers})
	pipeline := orchestrator.New(orchestrator.Options{
		EventStore:    stores.events,
		SpendStore:    stores.spend,
		SnapshotStore: stores.snapshots,
		Engine:        eng,
		Models:        cfg.Pipeline.Models,
		Window:        cfg.Pipeline.Window,
		Interval:      cfg.Pipeline.Interval,
		Workers:       cfg.Attribution.Workers,
		Metrics:       m,
		Logger:        log.Logger,
	})

	api := httpapi.New(httpapi.Options{
		Engine:        eng,
		Pipeline:      pipeline,
		Tracker:       tracker,
		Events:        stores.events,
		Spend:         stores.spend,
		Statuses:      stores.statuses,
		Metrics:       m,
		Logger:        log.Logger,
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
		DefaultWindow: cfg.Pipeline.Window,
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("storage", cfg.Storage.Backend).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := ingestion.NewKafkaConsumer(ingestion.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.ConsumerGroup,
		}, tracker, m, log.Logger)
		g.Go(func() error {
			defer consumer.Close()
			return ignoreCanceled(consumer.Run(gctx))
		})
	}

	if cfg.WebSocket.URL != "" {
		wsCfg := ingestion.DefaultWSConfig()
		wsCfg.ReconnectDelay = cfg.WebSocket.ReconnectDelay
		wsCfg.MaxReconnectDelay = cfg.WebSocket.MaxReconnectDelay
		source := ingestion.NewWSEventSource(cfg.WebSocket.URL, &wsCfg, tracker, m, log.Logger)
		g.Go(func() error { return ignoreCanceled(source.Run(gctx)) })
	}

	if cfg.Pipeline.Enabled {
		g.Go(func() error { return ignoreCanceled(pipeline.Run(gctx)) })
	}

	return g.Wait()
}

func newTracker(cfg config.RedisConfig, stores *allStores, m *observability.Metrics) (*ingestion.Tracker, func()) {
	opts := ingestion.TrackerOptions{Store: stores.events, Metrics: m, Logger: &log.Logger}
	if cfg.Addr == "" {
		return ingestion.NewTracker(opts), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	opts.Deduper = ingestion.NewRedisDeduper(client, "", cfg.DedupTTL)
	log.Info().Str("addr", cfg.Addr).Msg("redis event dedupe enabled")
	return ingestion.NewTracker(opts), func() { _ = client.Close() }
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
