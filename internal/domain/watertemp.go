package domain

import (
	"fmt"
	"time"
)

// WaterInput carries the establishment water-temperature inputs. TodayObs
// is the current day's record and YesterdayObs the fallback when today's
// has not landed yet; either may be nil.
type WaterInput struct {
	FieldName      string
	Today          time.Time
	TransplantDate time.Time
	TodayObs       *DailyObservation
	YesterdayObs   *DailyObservation
}

// WaterAssessment is the establishment-period water-temperature verdict.
type WaterAssessment struct {
	Applicable     bool      `json:"applicable"`
	RiskLevel      RiskLevel `json:"risk_level"`
	DaysSincePlant int       `json:"days_since_transplant"`
	EstimatedTemp  *float64  `json:"estimated_water_temp,omitempty"`
	Message        string    `json:"message"`
}

// EstimateWaterTemp derives paddy water temperature from air readings.
// Shallow water tracks the daily minimum but is pulled toward the mean
// by daytime solar gain; the 0.3 weighting was fitted against flooded
// paddy loggers. Returns false when either reading is missing.
func EstimateWaterTemp(obs *DailyObservation) (float64, bool) {
	if obs == nil || obs.MinTemp == nil || obs.AvgTemp == nil {
		return 0, false
	}
	return Round1(*obs.MinTemp + (*obs.AvgTemp-*obs.MinTemp)*0.3), true
}

// AssessWaterTemp checks establishment-period water temperature. It only
// applies on days 1 through EstablishmentDays after transplant; outside
// that window, or when neither today's nor yesterday's record yields an
// estimate, the result is neutral.
func AssessWaterTemp(in WaterInput, th Thresholds) WaterAssessment {
	days := DaysBetween(in.TransplantDate, in.Today)
	a := WaterAssessment{RiskLevel: RiskLow, DaysSincePlant: days}

	if days < 1 || days > th.EstablishmentDays {
		a.Message = fmt.Sprintf("[%s] Outside the establishment window (day %d); water temperature not evaluated.", in.FieldName, days)
		return a
	}
	a.Applicable = true

	est, ok := EstimateWaterTemp(in.TodayObs)
	if !ok {
		est, ok = EstimateWaterTemp(in.YesterdayObs)
	}
	if !ok {
		a.Message = fmt.Sprintf("[%s] No usable temperature record for the establishment check.", in.FieldName)
		return a
	}
	a.EstimatedTemp = &est

	if est < th.WaterTempThreshold {
		a.RiskLevel = RiskHigh
		a.Message = fmt.Sprintf(
			"[%s] Estimated water temperature %.1f°C on day %d after transplant is below %.0f°C.\nDeep-water management is recommended to protect the seedlings from cold.",
			in.FieldName, est, days, th.WaterTempThreshold)
		return a
	}

	a.Message = fmt.Sprintf("[%s] Estimated water temperature %.1f°C on day %d after transplant; no cold risk.", in.FieldName, est, days)
	return a
}
