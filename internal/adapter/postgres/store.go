package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inakamono/paddy-advisor/internal/domain"
)

// Store wraps database access for the advisory service. It implements
// advisor.Store plus the write paths used by the importer and the JMA
// fetcher.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping reports database connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const listFieldsSQL = `
    SELECT id, name, latitude, longitude, area_m2, variety, transplant_date,
           station_id, elevation_m, station_elevation_m, recipient_id
    FROM fields
    ORDER BY id
`

// ListFields returns all registered fields.
func (s *Store) ListFields(ctx context.Context) ([]domain.Field, error) {
	rows, err := s.pool.Query(ctx, listFieldsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := make([]domain.Field, 0)
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

const getFieldSQL = `
    SELECT id, name, latitude, longitude, area_m2, variety, transplant_date,
           station_id, elevation_m, station_elevation_m, recipient_id
    FROM fields
    WHERE id = $1
`

// GetField returns one field, or domain.ErrFieldNotFound.
func (s *Store) GetField(ctx context.Context, id int64) (domain.Field, error) {
	row := s.pool.QueryRow(ctx, getFieldSQL, id)
	f, err := scanField(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Field{}, domain.ErrFieldNotFound
	}
	return f, err
}

func scanField(row pgx.Row) (domain.Field, error) {
	var (
		f           domain.Field
		recipientID *string
	)
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Latitude,
		&f.Longitude,
		&f.AreaM2,
		&f.Variety,
		&f.TransplantDate,
		&f.StationID,
		&f.ElevationM,
		&f.StationElevation,
		&recipientID,
	)
	if recipientID != nil {
		f.RecipientID = *recipientID
	}
	return f, err
}

const createFieldSQL = `
    INSERT INTO fields (name, latitude, longitude, area_m2, variety, transplant_date,
                        station_id, elevation_m, station_elevation_m, recipient_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    RETURNING id
`

// CreateField registers a field and returns its assigned ID.
func (s *Store) CreateField(ctx context.Context, f domain.Field) (int64, error) {
	var recipientID *string
	if f.RecipientID != "" {
		recipientID = &f.RecipientID
	}
	var id int64
	err := s.pool.QueryRow(ctx, createFieldSQL,
		f.Name, f.Latitude, f.Longitude, f.AreaM2, f.Variety, f.TransplantDate,
		f.StationID, f.ElevationM, f.StationElevation, recipientID,
	).Scan(&id)
	return id, err
}

const dailyObservationsSQL = `
    SELECT station_id, obs_date, avg_temp, max_temp, min_temp, humidity, water_temp
    FROM daily_weather
    WHERE station_id = $1 AND obs_date BETWEEN $2 AND $3
    ORDER BY obs_date
`

// DailyObservations returns the station's daily records in a date range,
// inclusive, ordered by date.
func (s *Store) DailyObservations(ctx context.Context, stationID string, from, to time.Time) ([]domain.DailyObservation, error) {
	rows, err := s.pool.Query(ctx, dailyObservationsSQL, stationID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	obs := make([]domain.DailyObservation, 0)
	for rows.Next() {
		var o domain.DailyObservation
		if err := rows.Scan(&o.StationID, &o.Date, &o.AvgTemp, &o.MaxTemp, &o.MinTemp, &o.Humidity, &o.WaterTemp); err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

const upsertDailySQL = `
    INSERT INTO daily_weather (station_id, obs_date, avg_temp, max_temp, min_temp, humidity, water_temp)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (station_id, obs_date) DO UPDATE SET
        avg_temp = EXCLUDED.avg_temp,
        max_temp = EXCLUDED.max_temp,
        min_temp = EXCLUDED.min_temp,
        humidity = EXCLUDED.humidity,
        water_temp = EXCLUDED.water_temp
`

// SaveDailyObservations upserts daily records, last write wins. Used by
// the CSV importer and the JMA fetcher.
func (s *Store) SaveDailyObservations(ctx context.Context, obs []domain.DailyObservation) error {
	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(upsertDailySQL, o.StationID, o.Date, o.AvgTemp, o.MaxTemp, o.MinTemp, o.Humidity, o.WaterTemp)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

const hourlyObservationsSQL = `
    SELECT observed_at, air_temp, humidity
    FROM hourly_observations
    WHERE station_id = $1 AND observed_at >= $2 AND observed_at < $3
    ORDER BY observed_at
`

// HourlyObservations returns hourly samples in [from, to), ordered.
func (s *Store) HourlyObservations(ctx context.Context, stationID string, from, to time.Time) ([]domain.WetnessSample, error) {
	rows, err := s.pool.Query(ctx, hourlyObservationsSQL, stationID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]domain.WetnessSample, 0)
	for rows.Next() {
		var sm domain.WetnessSample
		if err := rows.Scan(&sm.ObservedAt, &sm.AirTemp, &sm.Humidity); err != nil {
			return nil, err
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

const upsertHourlySQL = `
    INSERT INTO hourly_observations (station_id, observed_at, air_temp, humidity)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (station_id, observed_at) DO UPDATE SET
        air_temp = EXCLUDED.air_temp,
        humidity = EXCLUDED.humidity
`

// SaveHourlyObservations upserts hourly samples for a station.
func (s *Store) SaveHourlyObservations(ctx context.Context, stationID string, samples []domain.WetnessSample) error {
	batch := &pgx.Batch{}
	for _, sm := range samples {
		batch.Queue(upsertHourlySQL, stationID, sm.ObservedAt, sm.AirTemp, sm.Humidity)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

const stageHistorySQL = `
    SELECT field_id, obs_date, accumulated_temp, stage, progress_pct, days_from_transplant
    FROM stage_history
    WHERE field_id = $1
    ORDER BY obs_date
`

// StageHistory returns the field's recorded stage snapshots, oldest first.
func (s *Store) StageHistory(ctx context.Context, fieldID int64) ([]domain.StageSnapshot, error) {
	rows, err := s.pool.Query(ctx, stageHistorySQL, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := make([]domain.StageSnapshot, 0)
	for rows.Next() {
		var snap domain.StageSnapshot
		if err := rows.Scan(&snap.FieldID, &snap.Date, &snap.AccumulatedTemp, &snap.Stage, &snap.ProgressPct, &snap.DaysFromTransplant); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

const upsertSnapshotSQL = `
    INSERT INTO stage_history (field_id, obs_date, accumulated_temp, stage, progress_pct, days_from_transplant)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (field_id, obs_date) DO UPDATE SET
        accumulated_temp = EXCLUDED.accumulated_temp,
        stage = EXCLUDED.stage,
        progress_pct = EXCLUDED.progress_pct,
        days_from_transplant = EXCLUDED.days_from_transplant
`

// SaveStageSnapshot records one day's stage for a field, idempotently.
func (s *Store) SaveStageSnapshot(ctx context.Context, snap domain.StageSnapshot) error {
	_, err := s.pool.Exec(ctx, upsertSnapshotSQL,
		snap.FieldID, snap.Date, snap.AccumulatedTemp, snap.Stage, snap.ProgressPct, snap.DaysFromTransplant)
	return err
}

const activeAdvisorySQL = `
    SELECT EXISTS (
        SELECT 1 FROM pest_advisories
        WHERE pest_name = $1 AND advisory_date >= $2
    )
`

// ActiveAdvisory reports whether an advisory for the pest was issued on
// or after the given date.
func (s *Store) ActiveAdvisory(ctx context.Context, pestName string, since time.Time) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx, activeAdvisorySQL, pestName, since).Scan(&active)
	return active, err
}

const insertAdvisorySQL = `
    INSERT INTO pest_advisories (advisory_date, pest_name, level, region, message)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
`

// SavePestAdvisory records a regional plant-protection advisory.
func (s *Store) SavePestAdvisory(ctx context.Context, a domain.PestAdvisory) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, insertAdvisorySQL, a.Date, a.PestName, a.Level, a.Region, a.Message).Scan(&id)
	return id, err
}

const seasonStateSQL = `
    SELECT state FROM season_state WHERE field_id = $1
`

// SeasonState returns the field's persisted engine state, or nil when
// the season has not started.
func (s *Store) SeasonState(ctx context.Context, fieldID int64) (*domain.SeasonState, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, seasonStateSQL, fieldID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state domain.SeasonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

const upsertSeasonStateSQL = `
    INSERT INTO season_state (field_id, state, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (field_id) DO UPDATE SET
        state = EXCLUDED.state,
        updated_at = now()
`

// SaveSeasonState persists the engine state as a JSON document.
func (s *Store) SaveSeasonState(ctx context.Context, state *domain.SeasonState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, upsertSeasonStateSQL, state.FieldID, data)
	return err
}

const insertNotificationSQL = `
    INSERT INTO notifications (field_id, obs_date, kind, severity, title, detail)
    VALUES ($1, $2, $3, $4, $5, $6)
`

// SaveNotifications appends events to the notification log.
func (s *Store) SaveNotifications(ctx context.Context, events []domain.Event) error {
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertNotificationSQL, e.FieldID, e.Date, e.Kind, e.Severity, e.Title, e.Detail)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

const listNotificationsSQL = `
    SELECT field_id, obs_date, kind, severity, title, detail
    FROM notifications
    WHERE field_id = $1
    ORDER BY obs_date, id
`

// ListNotifications returns a field's notification history, oldest first.
func (s *Store) ListNotifications(ctx context.Context, fieldID int64) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx, listNotificationsSQL, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.FieldID, &e.Date, &e.Kind, &e.Severity, &e.Title, &e.Detail); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
