package domain

import "math"

// Elevations pairs the field's elevation with its station's. Both are
// required for correction; callers with only one value pass nil and get
// the station temperature unchanged.
type Elevations struct {
	FieldM   float64
	StationM float64
}

// AccumulateDegreeDays sums effective degree-days over a chronological
// range of daily observations, inclusive of both endpoints. Each day
// contributes max(mean − base, 0); days with no mean temperature are
// skipped. When elev is non-nil the station temperature is first lowered
// by lapseRate × (field − station) meters. The result is rounded to one
// decimal for reporting; an empty range yields 0.0.
func AccumulateDegreeDays(days []DailyObservation, th Thresholds, elev *Elevations) float64 {
	var accumulated float64
	for _, d := range days {
		accumulated += effectiveContribution(d.AvgTemp, th, elev)
	}
	return Round1(accumulated)
}

// effectiveContribution is one day's clamped degree-day contribution.
func effectiveContribution(avgTemp *float64, th Thresholds, elev *Elevations) float64 {
	if avgTemp == nil {
		return 0
	}
	temp := *avgTemp
	if elev != nil {
		// A field above its station is cooler than the station reads.
		temp -= th.ElevationLapseRate * (elev.FieldM - elev.StationM)
	}
	return math.Max(temp-th.BaseTemperature, 0)
}

// Round1 rounds to one decimal place, the reporting precision for all
// accumulated-temperature values.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
