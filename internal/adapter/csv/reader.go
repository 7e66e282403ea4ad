// Package csv reads daily weather observations from CSV exports, the
// fallback data path when a field's station has no live feed.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/inakamono/paddy-advisor/internal/domain"
)

// Expected header columns. station_id and date are required per row;
// the measurement columns may be blank for missing readings.
const (
	colStation   = "station_id"
	colDate      = "date"
	colAvgTemp   = "avg_temp"
	colMaxTemp   = "max_temp"
	colMinTemp   = "min_temp"
	colHumidity  = "humidity"
	colWaterTemp = "water_temp"
)

// ReadDailyObservations parses daily weather rows. The first record is
// the header; column order does not matter. A row with an unparseable
// required field fails the whole read with its line number.
func ReadDailyObservations(r io.Reader) ([]domain.DailyObservation, error) {
	all, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := all[0]
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var out []domain.DailyObservation
	for i, row := range all[1:] {
		line := i + 2
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[strings.TrimSpace(h)] = strings.TrimSpace(row[j])
			}
		}

		station := fields[colStation]
		if station == "" {
			return nil, fmt.Errorf("line %d: missing station_id", line)
		}
		date, err := time.Parse("2006-01-02", fields[colDate])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q", line, fields[colDate])
		}

		obs := domain.DailyObservation{StationID: station, Date: date}
		if obs.AvgTemp, err = optFloat(fields[colAvgTemp]); err != nil {
			return nil, fmt.Errorf("line %d: bad avg_temp: %w", line, err)
		}
		if obs.MaxTemp, err = optFloat(fields[colMaxTemp]); err != nil {
			return nil, fmt.Errorf("line %d: bad max_temp: %w", line, err)
		}
		if obs.MinTemp, err = optFloat(fields[colMinTemp]); err != nil {
			return nil, fmt.Errorf("line %d: bad min_temp: %w", line, err)
		}
		if obs.Humidity, err = optFloat(fields[colHumidity]); err != nil {
			return nil, fmt.Errorf("line %d: bad humidity: %w", line, err)
		}
		if obs.WaterTemp, err = optFloat(fields[colWaterTemp]); err != nil {
			return nil, fmt.Errorf("line %d: bad water_temp: %w", line, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[strings.TrimSpace(h)] = true
	}
	for _, required := range []string{colStation, colDate} {
		if !seen[required] {
			return fmt.Errorf("header missing %q column", required)
		}
	}
	return nil
}

// optFloat treats a blank cell as a missing reading, not zero.
func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
