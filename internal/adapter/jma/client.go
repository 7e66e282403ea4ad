package jma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/inakamono/paddy-advisor/internal/domain"
	"github.com/inakamono/paddy-advisor/internal/observability"
)

// Client fetches AMeDAS station observations from the JMA open data
// endpoint. Point files are published per station in three-hour blocks
// of ten-minute samples.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a JMA observation client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// blockEntry is one timestamped sample inside a point file. Values come
// as [value, qualityFlag] pairs; a non-zero flag marks a suspect reading.
type blockEntry struct {
	Temp     []float64 `json:"temp"`
	Humidity []float64 `json:"humidity"`
}

// FetchDay downloads all of a station's three-hour blocks for one
// calendar day and aggregates them into the daily record plus the
// on-the-hour wetness samples. Blocks not yet published are skipped.
func (c *Client) FetchDay(ctx context.Context, stationID string, date time.Time) (domain.DailyObservation, []domain.WetnessSample, error) {
	daily := domain.DailyObservation{StationID: stationID, Date: domain.DateOf(date)}

	entries := make(map[time.Time]blockEntry)
	fetched := 0
	for hour := 0; hour < 24; hour += 3 {
		block, err := c.fetchBlock(ctx, stationID, date, hour)
		if err != nil {
			// A missing block is normal for the current day; later
			// blocks simply do not exist yet.
			c.logger.Debug("point block unavailable", "station", stationID, "hour", hour, "error", err)
			continue
		}
		for ts, e := range block {
			entries[ts] = e
		}
		fetched++
	}
	if fetched == 0 {
		c.metrics.JMARequests.WithLabelValues("empty").Inc()
		return daily, nil, fmt.Errorf("station %s: no observation blocks for %s", stationID, date.Format("2006-01-02"))
	}

	samples := hourlySamples(entries)

	var temps []float64
	var humiditySum float64
	humidityCount := 0
	for _, e := range entries {
		if v, ok := reading(e.Temp); ok {
			temps = append(temps, v)
		}
		if v, ok := reading(e.Humidity); ok {
			humiditySum += v
			humidityCount++
		}
	}
	if len(temps) > 0 {
		var sum, max, min float64
		max, min = temps[0], temps[0]
		for _, v := range temps {
			sum += v
			if v > max {
				max = v
			}
			if v < min {
				min = v
			}
		}
		avg := domain.Round1(sum / float64(len(temps)))
		max, min = domain.Round1(max), domain.Round1(min)
		daily.AvgTemp, daily.MaxTemp, daily.MinTemp = &avg, &max, &min
	}
	if humidityCount > 0 {
		h := domain.Round1(humiditySum / float64(humidityCount))
		daily.Humidity = &h
	}

	return daily, samples, nil
}

// fetchBlock downloads one three-hour point file.
func (c *Client) fetchBlock(ctx context.Context, stationID string, date time.Time, hour int) (map[time.Time]blockEntry, error) {
	u := fmt.Sprintf("%s/point/%s/%s_%02d.json", c.baseURL, stationID, date.Format("20060102"), hour)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.JMARequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("point request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.JMARequestDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.JMARequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("JMA API error: status %d: %s", resp.StatusCode, body)
	}

	var raw map[string]blockEntry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.metrics.JMARequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode point file: %w", err)
	}
	c.metrics.JMARequests.WithLabelValues("success").Inc()

	out := make(map[time.Time]blockEntry, len(raw))
	for key, e := range raw {
		ts, err := time.Parse("20060102150405", key)
		if err != nil {
			continue
		}
		out[ts] = e
	}
	return out, nil
}

// reading unpacks a [value, qualityFlag] pair, rejecting flagged values.
func reading(pair []float64) (float64, bool) {
	if len(pair) < 2 || pair[1] != 0 {
		return 0, false
	}
	return pair[0], true
}

// hourlySamples keeps only the on-the-hour entries, ordered by time.
func hourlySamples(entries map[time.Time]blockEntry) []domain.WetnessSample {
	var out []domain.WetnessSample
	for ts, e := range entries {
		if ts.Minute() != 0 || ts.Second() != 0 {
			continue
		}
		s := domain.WetnessSample{ObservedAt: ts}
		if v, ok := reading(e.Temp); ok {
			t := v
			s.AirTemp = &t
		}
		if v, ok := reading(e.Humidity); ok {
			h := v
			s.Humidity = &h
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out
}
