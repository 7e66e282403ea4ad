package domain

import "time"

// DailyObservation is one station-day weather summary. Nil fields mean the
// value was not reported; a missing mean temperature skips the day in
// accumulation without breaking the sequence.
type DailyObservation struct {
	StationID string     `json:"station_id"`
	Date      time.Time  `json:"date"`
	AvgTemp   *float64   `json:"avg_temp,omitempty"`
	MaxTemp   *float64   `json:"max_temp,omitempty"`
	MinTemp   *float64   `json:"min_temp,omitempty"`
	Humidity  *float64   `json:"humidity,omitempty"`
	WaterTemp *float64   `json:"water_temp,omitempty"`
}

// WetnessSample is one hourly station observation used by the blast
// assessor. Nil temperature or humidity breaks a wetness run.
type WetnessSample struct {
	ObservedAt time.Time `json:"observed_at"`
	AirTemp    *float64  `json:"air_temp,omitempty"`
	Humidity   *float64  `json:"humidity,omitempty"`
}

// Field is the static registration of one paddy: variety, transplant
// date, and the weather station it reads from.
type Field struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	AreaM2           *float64   `json:"area_m2,omitempty"`
	Variety          string     `json:"variety"`
	TransplantDate   *time.Time `json:"transplant_date,omitempty"`
	StationID        string     `json:"station_id"`
	ElevationM       *float64   `json:"elevation_m,omitempty"`
	StationElevation *float64   `json:"station_elevation_m,omitempty"`
	RecipientID      string     `json:"recipient_id,omitempty"`
}

// PestAdvisory is a regional plant-protection advisory, matched by pest
// name within a lookback window when escalating blast risk.
type PestAdvisory struct {
	ID       int64     `json:"id"`
	Date     time.Time `json:"date"`
	PestName string    `json:"pest_name"`
	Level    string    `json:"level,omitempty"`
	Region   string    `json:"region,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// StageSnapshot is one day's recorded stage for a field. The first
// snapshot carrying the heading stage pins the heading date for the
// heat-stress and drain-timing assessors.
type StageSnapshot struct {
	FieldID            int64     `json:"field_id"`
	Date               time.Time `json:"date"`
	AccumulatedTemp    float64   `json:"accumulated_temp"`
	Stage              StageKey  `json:"stage"`
	ProgressPct        float64   `json:"progress_pct"`
	DaysFromTransplant int       `json:"days_from_transplant"`
}

// RiskLevel is the three-step advisory scale shared by all assessors.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

var riskOrder = map[RiskLevel]int{RiskLow: 0, RiskModerate: 1, RiskHigh: 2}

// Escalate raises the level by one step, saturating at high.
func (r RiskLevel) Escalate() RiskLevel {
	switch r {
	case RiskLow:
		return RiskModerate
	case RiskModerate:
		return RiskHigh
	default:
		return RiskHigh
	}
}

// AtLeast reports whether r is at or above other on the scale.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return riskOrder[r] >= riskOrder[other]
}

// Resistance is a variety's blast-disease resistance rating. Weak
// varieties get one extra escalation step.
type Resistance string

const (
	ResistanceWeak   Resistance = "weak"
	ResistanceMedium Resistance = "medium"
	ResistanceStrong Resistance = "strong"
)
