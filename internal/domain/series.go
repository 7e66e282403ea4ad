package domain

import "time"

// DayPoint is one day of a field's season series: the raw observation
// plus the derived effective contribution, running accumulation, and
// stage as of that day.
type DayPoint struct {
	Date    time.Time
	Obs     DailyObservation
	EffTemp float64 // clamped, elevation-corrected contribution
	Accum   float64 // running accumulated heat through this day
	Stage   StageKey
}

// BuildSeries derives the day-by-day season series for a field from its
// chronological observations. Accumulation starts at the transplant
// date; observations before it contribute nothing but are kept in the
// series so trailing-window statistics see them.
func BuildSeries(table *StageTable, transplant time.Time, obs []DailyObservation, th Thresholds, elev *Elevations) []DayPoint {
	points := make([]DayPoint, 0, len(obs))
	var accum float64
	start := DateOf(transplant)
	for _, d := range obs {
		day := DateOf(d.Date)
		p := DayPoint{Date: day, Obs: d}
		if !day.Before(start) {
			p.EffTemp = effectiveContribution(d.AvgTemp, th, elev)
			accum += p.EffTemp
		}
		p.Accum = Round1(accum)
		p.Stage = table.Classify(p.Accum, 0, th).Stage
		points = append(points, p)
	}
	return points
}

// trailingMeanEff averages the effective contributions of the n points
// ending at index i, inclusive.
func trailingMeanEff(points []DayPoint, i, n int) float64 {
	lo := i - n + 1
	if lo < 0 {
		lo = 0
	}
	var sum float64
	count := 0
	for j := lo; j <= i; j++ {
		sum += points[j].EffTemp
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// trailingMeanAvg averages the recorded mean temperatures of the n
// points ending at index i, skipping days with no reading; fallback is
// returned when the window holds none.
func trailingMeanAvg(points []DayPoint, i, n int, fallback float64) float64 {
	lo := i - n + 1
	if lo < 0 {
		lo = 0
	}
	var sum float64
	count := 0
	for j := lo; j <= i; j++ {
		if t := points[j].Obs.AvgTemp; t != nil {
			sum += *t
			count++
		}
	}
	if count == 0 {
		return fallback
	}
	return sum / float64(count)
}
