// Command advisor runs the paddy advisory service: a daily morning
// evaluation of every registered field, an HTTP API for registration
// and on-demand advice, and optional Kafka delivery of notifications.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inakamono/paddy-advisor/internal/adapter/httpapi"
	"github.com/inakamono/paddy-advisor/internal/adapter/jma"
	kafkaadapter "github.com/inakamono/paddy-advisor/internal/adapter/kafka"
	"github.com/inakamono/paddy-advisor/internal/adapter/postgres"
	"github.com/inakamono/paddy-advisor/internal/advisor"
	"github.com/inakamono/paddy-advisor/internal/config"
	"github.com/inakamono/paddy-advisor/internal/observability"
	"github.com/inakamono/paddy-advisor/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		logger.Error("schema init failed", "error", err)
		os.Exit(1)
	}

	// Notification delivery is feature-flagged via KAFKA_ENABLED /
	// KAFKA_BROKERS; without it events are still persisted and logged.
	var publisher advisor.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka delivery enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaNotificationTopic)
	} else {
		logger.Info("kafka delivery disabled")
	}

	service := advisor.New(store, publisher, logger, metrics, cfg.Location())

	var weather *jma.Client
	if cfg.JMAEnabled {
		weather = jma.NewClient(cfg.JMABaseURL, cfg.JMATimeout, logger, metrics)
		logger.Info("JMA observation fetching enabled", "base_url", cfg.JMABaseURL)
	} else {
		logger.Info("JMA observation fetching disabled")
	}

	run := &morningRun{service: service, store: store, weather: weather, logger: logger}
	sched := scheduler.New(run, logger, metrics, cfg.Location(), cfg.RunHour)

	go func() {
		sched.RunNow(ctx)
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	srv := httpapi.NewServer(cfg.HTTPAddr, service, store, logger)
	if err := srv.Run(ctx, cfg.ShutdownTimeout); err != nil {
		logger.Error("http server error", "error", err)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}

// morningRun refreshes station observations before handing the day to
// the advisory service. Fetching yesterday as well fills in blocks that
// were not yet published during the previous run.
type morningRun struct {
	service *advisor.Service
	store   *postgres.Store
	weather *jma.Client
	logger  *slog.Logger
}

func (m *morningRun) RunAll(ctx context.Context, asOf time.Time) {
	if m.weather != nil {
		stations, err := m.stationIDs(ctx)
		if err != nil {
			m.logger.Error("list stations failed", "error", err)
		} else if len(stations) > 0 {
			m.weather.IngestStations(ctx, m.store, stations, asOf.AddDate(0, 0, -1))
			m.weather.IngestStations(ctx, m.store, stations, asOf)
		}
	}
	m.service.RunAll(ctx, asOf)
}

func (m *morningRun) stationIDs(ctx context.Context) ([]string, error) {
	fields, err := m.store.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.StationID)
	}
	return ids, nil
}
