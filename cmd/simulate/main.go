// Command simulate generates a synthetic Higashihiroshima growing season
// from monthly climate normals and replays it through the advisory
// decision engine, printing the full notification timeline. Useful for
// eyeballing when each advisory would fire for a variety and transplant
// date without a database or live weather.
//
// Usage:
//
//	go run ./cmd/simulate -variety koshihikari -transplant 2025-06-05
//
// With -csv-out the generated weather is also written in the importcsv
// format, so the same season can be loaded into a real instance.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/inakamono/paddy-advisor/internal/domain"
)

// Monthly climate normals for the Higashihiroshima Amedas station
// (elevation 227 m): mean, max, min temperature and humidity.
type normals struct {
	avg, max, min, humidity float64
}

var climateNormals = map[time.Month]normals{
	time.April:     {12.5, 18.5, 7.0, 65},
	time.May:       {17.5, 23.5, 12.5, 68},
	time.June:      {21.5, 26.5, 17.5, 78},
	time.July:      {25.8, 30.8, 22.0, 80},
	time.August:    {26.8, 32.0, 23.0, 76},
	time.September: {22.5, 27.5, 18.5, 78},
	time.October:   {16.0, 22.0, 11.0, 72},
}

const simStation = "47766"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	variety := flag.String("variety", "koshihikari", "rice variety to simulate")
	transplantStr := flag.String("transplant", "2025-06-05", "transplant date (2006-01-02)")
	seed := flag.Int64("seed", 2025, "random seed for weather generation")
	csvOut := flag.String("csv-out", "", "optional path to write the generated weather as CSV")
	flag.Parse()

	transplant, err := time.Parse("2006-01-02", *transplantStr)
	if err != nil {
		return fmt.Errorf("invalid -transplant: %w", err)
	}
	if _, err := domain.LookupVariety(*variety); err != nil {
		return fmt.Errorf("%w: %s (known: %v)", err, *variety, domain.Varieties())
	}

	obs := generateSeason(transplant.Year(), rand.New(rand.NewSource(*seed)))
	fmt.Printf("generated %d days of weather for %d\n", len(obs), transplant.Year())

	if *csvOut != "" {
		if err := writeCSV(*csvOut, obs); err != nil {
			return fmt.Errorf("write %s: %w", *csvOut, err)
		}
		fmt.Printf("wrote weather CSV: %s\n", *csvOut)
	}

	field := domain.Field{
		ID:             1,
		Name:           "simulated paddy",
		Latitude:       34.43,
		Longitude:      132.74,
		Variety:        *variety,
		TransplantDate: &transplant,
		StationID:      simStation,
	}
	eng, err := domain.NewEngine(field, domain.DefaultThresholds())
	if err != nil {
		return err
	}

	points := eng.Series(obs)
	state := domain.NewSeasonState(field.ID)
	events := eng.EvaluateRange(state, points)

	printTimeline(points, events, state, transplant, *variety)
	return nil
}

// generateSeason produces daily April through mid-October weather:
// normals blended toward the next month, a post-transplant cold snap,
// a humid rainy season, midsummer heat spikes, autumn rain dips, and
// day-to-day noise correlated with the previous day.
func generateSeason(year int, rng *rand.Rand) []domain.DailyObservation {
	start := time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.October, 15, 0, 0, 0, 0, time.UTC)

	var out []domain.DailyObservation
	prevAvg := math.NaN()
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		n, ok := climateNormals[d.Month()]
		if !ok {
			n = climateNormals[time.June]
		}
		avg, maxT, minT, hum := n.avg, n.max, n.min, n.humidity

		// Blend toward the next month's normals across the month.
		if next, ok := climateNormals[d.Month()+1]; ok {
			frac := float64(d.Day()) / 30.0 * 0.3
			avg += (next.avg - avg) * frac
			maxT += (next.max - maxT) * frac
			minT += (next.min - minT) * frac
			hum += (next.humidity - hum) * frac
		}

		switch {
		case within(d, year, time.June, 6, time.June, 9):
			// Cold snap right after typical transplant.
			avg -= uniform(rng, 4, 7)
			minT -= uniform(rng, 5, 8)
			maxT -= uniform(rng, 2, 4)
		case within(d, year, time.June, 10, time.July, 15):
			if rng.Float64() < 0.55 {
				avg -= uniform(rng, 1, 3)
				hum = math.Min(100, hum+uniform(rng, 5, 15))
			}
		case within(d, year, time.July, 20, time.August, 20):
			if rng.Float64() < 0.15 {
				maxT += uniform(rng, 2, 5)
				minT += uniform(rng, 1, 3)
				avg += uniform(rng, 1, 3)
			}
		case within(d, year, time.August, 25, time.September, 20):
			if rng.Float64() < 0.2 {
				avg -= uniform(rng, 2, 5)
				hum = math.Min(100, hum+10)
			}
		}

		noise := rng.NormFloat64() * 1.5
		if !math.IsNaN(prevAvg) {
			noise = noise*0.6 + (prevAvg-avg)*0.3
		}

		avgTemp := domain.Round1(avg + noise)
		maxTemp := domain.Round1(avgTemp + (maxT - avg) + rng.NormFloat64())
		minTemp := domain.Round1(avgTemp - (avg - minT) + rng.NormFloat64()*0.8)
		humidity := domain.Round1(math.Max(40, math.Min(100, hum+rng.NormFloat64()*5)))
		waterTemp := domain.Round1(minTemp + (avgTemp-minTemp)*0.3 + rng.NormFloat64()*0.5)

		out = append(out, domain.DailyObservation{
			StationID: simStation,
			Date:      d,
			AvgTemp:   &avgTemp,
			MaxTemp:   &maxTemp,
			MinTemp:   &minTemp,
			Humidity:  &humidity,
			WaterTemp: &waterTemp,
		})
		prevAvg = avgTemp
	}
	return out
}

func within(d time.Time, year int, fromM time.Month, fromD int, toM time.Month, toD int) bool {
	from := time.Date(year, fromM, fromD, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, toM, toD, 0, 0, 0, 0, time.UTC)
	return !d.Before(from) && !d.After(to)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func printTimeline(points []domain.DayPoint, events []domain.Event, state *domain.SeasonState, transplant time.Time, variety string) {
	fmt.Println()
	fmt.Println("=== season simulation ===")
	fmt.Printf("variety: %s  transplant: %s\n", variety, transplant.Format("2006-01-02"))
	if state.HeadingDate != nil {
		fmt.Printf("heading: %s\n", state.HeadingDate.Format("2006-01-02"))
	}
	if state.DrainStartDate != nil {
		fmt.Printf("midseason drain reached: %s\n", state.DrainStartDate.Format("2006-01-02"))
	}
	if len(points) > 0 {
		last := points[len(points)-1]
		fmt.Printf("final accumulation: %.1f deg-days (%s)\n", last.Accum, last.Stage)
	}
	fmt.Println()

	for _, e := range events {
		accum := 0.0
		for _, p := range points {
			if p.Date.Equal(e.Date) {
				accum = p.Accum
				break
			}
		}
		fmt.Printf("%s  [%-7s]  %-13s  %s\n", e.Date.Format("2006-01-02"), e.Severity, e.Kind, e.Title)
		fmt.Printf("            accum %.0f deg-days\n", accum)
		fmt.Printf("            %s\n", e.Detail)
		fmt.Println()
	}
	fmt.Printf("total: %d notifications\n", len(events))
}

func writeCSV(path string, obs []domain.DailyObservation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"station_id", "date", "avg_temp", "max_temp", "min_temp", "humidity", "water_temp"}); err != nil {
		return err
	}
	for _, o := range obs {
		row := []string{
			o.StationID,
			o.Date.Format("2006-01-02"),
			cell(o.AvgTemp), cell(o.MaxTemp), cell(o.MinTemp), cell(o.Humidity), cell(o.WaterTemp),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
