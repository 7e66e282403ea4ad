package jma

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inakamono/paddy-advisor/internal/domain"
	"github.com/inakamono/paddy-advisor/internal/observability"
)

func testClient(baseURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(baseURL, 2*time.Second, logger, observability.NewMetricsForTesting())
}

// blockJSON renders one three-hour point file with hourly entries.
func blockJSON(date time.Time, startHour int, temps, humidities []float64) string {
	out := "{"
	for i := range temps {
		ts := time.Date(date.Year(), date.Month(), date.Day(), startHour+i, 0, 0, 0, time.UTC)
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`"%s":{"temp":[%.1f,0],"humidity":[%.0f,0]}`,
			ts.Format("20060102150405"), temps[i], humidities[i])
	}
	return out + "}"
}

func TestFetchDay(t *testing.T) {
	date := time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)

	t.Run("aggregates published blocks", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/point/47595/20250710_00.json":
				fmt.Fprint(w, blockJSON(date, 0, []float64{20.0, 19.5, 19.0}, []float64{90, 92, 94}))
			case "/point/47595/20250710_03.json":
				fmt.Fprint(w, blockJSON(date, 3, []float64{19.0, 20.0, 22.5}, []float64{95, 93, 88}))
			default:
				http.NotFound(w, r)
			}
		}))
		defer srv.Close()

		daily, samples, err := testClient(srv.URL).FetchDay(context.Background(), "47595", date)
		require.NoError(t, err)

		assert.Equal(t, "47595", daily.StationID)
		require.NotNil(t, daily.AvgTemp)
		assert.Equal(t, 20.0, *daily.AvgTemp)
		assert.Equal(t, 22.5, *daily.MaxTemp)
		assert.Equal(t, 19.0, *daily.MinTemp)
		require.NotNil(t, daily.Humidity)
		assert.Equal(t, 92.0, *daily.Humidity)

		require.Len(t, samples, 6)
		assert.True(t, samples[0].ObservedAt.Before(samples[5].ObservedAt))
		require.NotNil(t, samples[5].AirTemp)
		assert.Equal(t, 22.5, *samples[5].AirTemp)
	})

	t.Run("flagged readings rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/point/47595/20250710_00.json" {
				fmt.Fprint(w, `{"20250710010000":{"temp":[21.0,1],"humidity":[90,0]}}`)
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		daily, samples, err := testClient(srv.URL).FetchDay(context.Background(), "47595", date)
		require.NoError(t, err)
		assert.Nil(t, daily.AvgTemp)
		require.Len(t, samples, 1)
		assert.Nil(t, samples[0].AirTemp)
		require.NotNil(t, samples[0].Humidity)
		assert.Equal(t, 90.0, *samples[0].Humidity)
	})

	t.Run("no blocks at all is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, _, err := testClient(srv.URL).FetchDay(context.Background(), "47595", date)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no observation blocks")
	})
}

type recordingSink struct {
	daily  []domain.DailyObservation
	hourly map[string]int
}

func (r *recordingSink) SaveDailyObservations(_ context.Context, obs []domain.DailyObservation) error {
	r.daily = append(r.daily, obs...)
	return nil
}

func (r *recordingSink) SaveHourlyObservations(_ context.Context, stationID string, samples []domain.WetnessSample) error {
	if r.hourly == nil {
		r.hourly = make(map[string]int)
	}
	r.hourly[stationID] += len(samples)
	return nil
}

func TestIngestStations(t *testing.T) {
	date := time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/point/47595/20250710_00.json", "/point/47890/20250710_00.json":
			fmt.Fprint(w, blockJSON(date, 0, []float64{20.0}, []float64{90}))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sink := &recordingSink{}
	// Duplicates and blanks are skipped; the dead station just logs.
	testClient(srv.URL).IngestStations(context.Background(), sink,
		[]string{"47595", "", "47595", "47890", "99999"}, date)

	require.Len(t, sink.daily, 2)
	assert.Equal(t, 1, sink.hourly["47595"])
	assert.Equal(t, 1, sink.hourly["47890"])
}
