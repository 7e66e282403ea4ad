package jma

import (
	"context"
	"time"

	"github.com/inakamono/paddy-advisor/internal/domain"
)

// Sink receives fetched observations, implemented by the postgres store.
type Sink interface {
	SaveDailyObservations(ctx context.Context, obs []domain.DailyObservation) error
	SaveHourlyObservations(ctx context.Context, stationID string, samples []domain.WetnessSample) error
}

// IngestStations fetches and stores one day of observations for each
// station, deduplicated. A station that fails is logged and skipped so
// one broken feed does not starve the rest.
func (c *Client) IngestStations(ctx context.Context, sink Sink, stationIDs []string, date time.Time) {
	seen := make(map[string]bool, len(stationIDs))
	for _, id := range stationIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		daily, samples, err := c.FetchDay(ctx, id, date)
		if err != nil {
			c.logger.Warn("station fetch failed", "station", id, "error", err)
			continue
		}
		if err := sink.SaveDailyObservations(ctx, []domain.DailyObservation{daily}); err != nil {
			c.logger.Error("save daily observation failed", "station", id, "error", err)
			continue
		}
		if err := sink.SaveHourlyObservations(ctx, id, samples); err != nil {
			c.logger.Error("save hourly observations failed", "station", id, "error", err)
			continue
		}
		c.logger.Info("station observations ingested", "station", id, "date", date.Format("2006-01-02"), "samples", len(samples))
	}
}
