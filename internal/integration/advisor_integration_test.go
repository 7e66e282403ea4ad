//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	kafkaadapter "github.com/inakamono/paddy-advisor/internal/adapter/kafka"
	"github.com/inakamono/paddy-advisor/internal/adapter/postgres"
	"github.com/inakamono/paddy-advisor/internal/advisor"
	"github.com/inakamono/paddy-advisor/internal/config"
	"github.com/inakamono/paddy-advisor/internal/domain"
	"github.com/inakamono/paddy-advisor/internal/observability"
)

const testNotificationTopic = "test-paddy-notifications"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("paddy"),
		tcpostgres.WithUsername("advisor"),
		tcpostgres.WithPassword("advisor"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)))
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// TestNotificationDelivery verifies the Kafka writer against a real
// broker: events arrive keyed by field with kind, severity, and date
// headers, and the payload deserializes back to the event.
func TestNotificationDelivery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testNotificationTopic)

	cfg := &config.Config{
		KafkaBrokers:           []string{broker},
		KafkaNotificationTopic: testNotificationTopic,
	}
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	events := []domain.Event{
		{
			FieldID: 12, Date: time.Date(2025, time.July, 20, 0, 0, 0, 0, time.UTC),
			Kind: domain.EventDrainStart, Severity: domain.SeverityAction,
			Title: "Start midseason drainage", Detail: "Accumulated 502 deg-days.",
		},
		{
			FieldID: 12, Date: time.Date(2025, time.August, 14, 0, 0, 0, 0, time.UTC),
			Kind: domain.EventHeatHigh, Severity: domain.SeverityWarning,
			Title: "High heat stress risk", Detail: "Post-heading mean 27.4 C.",
		},
	}
	require.NoError(t, writer.Publish(ctx, events))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testNotificationTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for _, want := range events {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from notification topic")

		assert.Equal(t, "12", string(msg.Key))

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, string(want.Kind), headers["kind"])
		assert.Equal(t, string(want.Severity), headers["severity"])
		ts, err := time.Parse(time.RFC3339, headers["date"])
		require.NoError(t, err)
		assert.True(t, ts.Equal(want.Date))

		var got domain.Event
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.Title, got.Title)
	}
}

// TestPostgresSeasonLifecycle runs a full season against a real
// database: register a field, load its weather, evaluate, and confirm
// the notifications and season state survive a second pass.
func TestPostgresSeasonLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.New(ctx, startPostgres(ctx, t))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.InitSchema(ctx))

	transplant := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)
	fieldID, err := store.CreateField(ctx, domain.Field{
		Name:           "integration paddy",
		Latitude:       34.43,
		Longitude:      132.74,
		Variety:        "koshihikari",
		StationID:      "47766",
		TransplantDate: &transplant,
	})
	require.NoError(t, err)

	require.NoError(t, store.SaveDailyObservations(ctx, warmSeason("47766", transplant, 130)))

	service := advisor.New(store, nil, discardLogger(), observability.NewMetricsForTesting(), time.UTC)
	asOf := transplant.AddDate(0, 0, 129)

	events, err := service.EvaluateField(ctx, fieldID, asOf)
	require.NoError(t, err)
	require.NotEmpty(t, events, "a warm season should produce notifications")

	stored, err := store.ListNotifications(ctx, fieldID)
	require.NoError(t, err)
	assert.Len(t, stored, len(events))

	state, err := store.SeasonState(ctx, fieldID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.NotNil(t, state.HeadingDate)
	assert.True(t, state.Evaluated(asOf))

	// The same season replayed emits nothing new.
	again, err := service.EvaluateField(ctx, fieldID, asOf)
	require.NoError(t, err)
	assert.Empty(t, again)

	advice, err := service.Advise(ctx, fieldID, asOf)
	require.NoError(t, err)
	assert.Equal(t, fieldID, advice.FieldID)
}

// warmSeason builds a deterministic hot season: enough heat to reach
// maturity, humid midseason days for the blast rule, warm nights for
// heat stress.
func warmSeason(stationID string, start time.Time, days int) []domain.DailyObservation {
	out := make([]domain.DailyObservation, 0, days)
	for i := 0; i < days; i++ {
		avg, min, hum := 25.0, 20.0, 85.0
		switch {
		case i < 5:
			avg, min, hum = 18.0, 8.0, 70.0
		case i >= 65:
			avg, min, hum = 28.0, 24.0, 88.0
		default:
			hum = 90.0
		}
		max := avg + 5
		wt := min + (avg-min)*0.3
		out = append(out, domain.DailyObservation{
			StationID: stationID,
			Date:      start.AddDate(0, 0, i),
			AvgTemp:   f(avg), MaxTemp: f(max), MinTemp: f(min),
			Humidity: f(hum), WaterTemp: f(wt),
		})
	}
	return out
}

func f(v float64) *float64 { return &v }
