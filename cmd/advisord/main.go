package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/agrisafe/crop-risk-advisory/internal/adapter/http"
	kafkaadapter "github.com/agrisafe/crop-risk-advisory/internal/adapter/kafka"
	"github.com/agrisafe/crop-risk-advisory/internal/adapter/notify"
	"github.com/agrisafe/crop-risk-advisory/internal/adapter/weatherapi"
	"github.com/agrisafe/crop-risk-advisory/internal/config"
	"github.com/agrisafe/crop-risk-advisory/internal/dispatch"
	"github.com/agrisafe/crop-risk-advisory/internal/engine"
	"github.com/agrisafe/crop-risk-advisory/internal/observability"
	"github.com/agrisafe/crop-risk-advisory/internal/scheduler"
	"github.com/agrisafe/crop-risk-advisory/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// File-backed farmer state when DATA_DIR is set, memory-only otherwise.
	var st store.Store
	if cfg.DataDir != "" {
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open file store", "dir", cfg.DataDir, "error", err)
			os.Exit(1)
		}
		st = fs
		logger.Info("file store enabled", "dir", cfg.DataDir)
	} else {
		st = store.NewMemoryStore()
		logger.Info("using in-memory store, state will not survive restarts")
	}

	sessions := dispatch.NewSessions(st, logger, cfg.QueueMaxEntries, cfg.QueueMaxAge, cfg.NotifiedCacheSize)

	primary := notify.NewSMSSink(logger)
	fallback := notify.NewFeedSink(logger)

	dispatcher := dispatch.New(sessions, primary, fallback, clockwork.NewRealClock(),
		cfg.MediumAlertDelay, logger, metrics)

	// Advisory event publishing (feature-flagged via KAFKA_ENABLED).
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAdvisoryTopic, logger)
		dispatcher.SetEventPublisher(publisher)
		logger.Info("advisory event publishing enabled",
			"brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAdvisoryTopic)
	} else {
		logger.Info("advisory event publishing disabled")
	}

	weather := weatherapi.New(cfg.WeatherURL, &http.Client{Timeout: cfg.WeatherTimeout})
	crops := store.NewCropRegistry(logger)

	eng := engine.New(weather, crops, dispatcher, cfg.DefaultLanguage, logger, metrics)

	sched := scheduler.New(cfg.FarmerIDs, cfg.EvalInterval, eng, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, eng, dispatcher, sessions, crops, cfg.DefaultLanguage, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := sched.Start(); err != nil {
		logger.Error("scheduler start error", "error", err)
		os.Exit(1)
	}
	metrics.EngineRunning.Set(1)

	dispatcher.StartReminderPoll(ctx, cfg.ReminderPollInterval, cfg.FarmerIDs, crops, cfg.DefaultLanguage)

	<-ctx.Done()
	logger.Info("shutting down")
	metrics.EngineRunning.Set(0)

	dispatcher.StopReminderPoll()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
