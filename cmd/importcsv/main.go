// Command importcsv loads daily weather observations from a CSV export
// into the database, for stations without a live JMA feed or for
// backfilling past seasons.
//
// Usage:
//
//	go run ./cmd/importcsv -file weather.csv
//
// Expected columns: station_id, date (2006-01-02), and any of avg_temp,
// max_temp, min_temp, humidity, water_temp. Blank cells are stored as
// missing readings. Existing rows for the same station and date are
// overwritten.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	csvadapter "github.com/inakamono/paddy-advisor/internal/adapter/csv"
	"github.com/inakamono/paddy-advisor/internal/adapter/postgres"
	"github.com/inakamono/paddy-advisor/internal/config"
)

func main() {
	file := flag.String("file", "", "path to the daily weather CSV")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*file); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	obs, err := csvadapter.ReadDailyObservations(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	if err := store.SaveDailyObservations(ctx, obs); err != nil {
		return err
	}

	fmt.Printf("imported %d daily observations from %s\n", len(obs), path)
	return nil
}
