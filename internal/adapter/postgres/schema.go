package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS fields (
    id                   BIGSERIAL PRIMARY KEY,
    name                 TEXT NOT NULL,
    latitude             DOUBLE PRECISION NOT NULL,
    longitude            DOUBLE PRECISION NOT NULL,
    area_m2              DOUBLE PRECISION,
    variety              TEXT NOT NULL,
    transplant_date      DATE,
    station_id           TEXT NOT NULL,
    elevation_m          DOUBLE PRECISION,
    station_elevation_m  DOUBLE PRECISION,
    recipient_id         TEXT
);

CREATE TABLE IF NOT EXISTS daily_weather (
    station_id  TEXT NOT NULL,
    obs_date    DATE NOT NULL,
    avg_temp    DOUBLE PRECISION,
    max_temp    DOUBLE PRECISION,
    min_temp    DOUBLE PRECISION,
    humidity    DOUBLE PRECISION,
    water_temp  DOUBLE PRECISION,
    PRIMARY KEY (station_id, obs_date)
);

CREATE TABLE IF NOT EXISTS hourly_observations (
    station_id   TEXT NOT NULL,
    observed_at  TIMESTAMPTZ NOT NULL,
    air_temp     DOUBLE PRECISION,
    humidity     DOUBLE PRECISION,
    PRIMARY KEY (station_id, observed_at)
);

CREATE TABLE IF NOT EXISTS stage_history (
    field_id              BIGINT NOT NULL REFERENCES fields(id),
    obs_date              DATE NOT NULL,
    accumulated_temp      DOUBLE PRECISION NOT NULL,
    stage                 TEXT NOT NULL,
    progress_pct          DOUBLE PRECISION NOT NULL,
    days_from_transplant  INTEGER NOT NULL,
    PRIMARY KEY (field_id, obs_date)
);

CREATE TABLE IF NOT EXISTS pest_advisories (
    id             BIGSERIAL PRIMARY KEY,
    advisory_date  DATE NOT NULL,
    pest_name      TEXT NOT NULL,
    level          TEXT,
    region         TEXT,
    message        TEXT
);

CREATE TABLE IF NOT EXISTS season_state (
    field_id    BIGINT PRIMARY KEY REFERENCES fields(id),
    state       JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notifications (
    id        BIGSERIAL PRIMARY KEY,
    field_id  BIGINT NOT NULL REFERENCES fields(id),
    obs_date  DATE NOT NULL,
    kind      TEXT NOT NULL,
    severity  TEXT NOT NULL,
    title     TEXT NOT NULL,
    detail    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_field_date ON notifications (field_id, obs_date);
CREATE INDEX IF NOT EXISTS idx_pest_advisories_name_date ON pest_advisories (pest_name, advisory_date);
`

// InitSchema creates the tables when they do not exist yet. Safe to run
// on every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}
