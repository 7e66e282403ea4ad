package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// HeatInput carries the heat-stress assessor's inputs. Observations must
// be chronological daily records for the field's station; History is the
// field's recorded stage snapshots, newest last.
type HeatInput struct {
	FieldName       string
	Variety         string
	Today           time.Time
	Accumulated     float64
	Observations    []DailyObservation
	History         []StageSnapshot
	RecentDailyTemp float64 // recent 7-day mean, 20.0 when unknown
}

// HeatAssessment is the grain-filling heat-stress verdict for one field.
type HeatAssessment struct {
	RiskLevel     RiskLevel  `json:"risk_level"`
	HeadingDate   *time.Time `json:"heading_date,omitempty"`
	HeadingExact  bool       `json:"heading_recorded"`
	WindowDays    int        `json:"window_days"`
	AvgTemp       float64    `json:"avg_temp_post_heading"`
	AvgNightTemp  float64    `json:"avg_night_temp_post_heading"`
	NightEscalate bool       `json:"night_escalated"`
	Message       string     `json:"message"`
}

// ResolveHeadingDate finds the field's heading date: the first recorded
// snapshot at or past heading wins; otherwise the date is projected from
// accumulated heat and the recent temperature trend. The second return
// reports whether the date came from a recorded snapshot.
func ResolveHeadingDate(table *StageTable, accumulated float64, history []StageSnapshot, today time.Time, recentDailyTemp float64, th Thresholds) (time.Time, bool) {
	headingIdx := table.Index(StageHeading)
	for _, snap := range history {
		if i := table.Index(snap.Stage); i >= headingIdx && i >= 0 {
			return DateOf(snap.Date), true
		}
	}

	headingLow, _ := table.LowThreshold(StageHeading)
	if accumulated >= headingLow {
		return DateOf(today), false
	}
	remaining := headingLow - accumulated
	dailyEffective := math.Max(recentDailyTemp-th.BaseTemperature, 0.1)
	days := int(remaining / dailyEffective)
	return DateOf(today).AddDate(0, 0, days), false
}

// AssessHeatStress evaluates grain-filling heat stress over the window
// from the day after heading through min(heading+evalDays, today). A
// mean temperature at or above the high threshold is high risk; at or
// above the moderate threshold it is moderate, escalated to high when
// nighttime minimums also run warm. An empty window is neutral.
func AssessHeatStress(table *StageTable, in HeatInput, th Thresholds) HeatAssessment {
	recent := in.RecentDailyTemp
	if recent <= 0 {
		recent = 20.0
	}
	heading, exact := ResolveHeadingDate(table, in.Accumulated, in.History, in.Today, recent, th)

	windowEnd := heading.AddDate(0, 0, th.HeatEvalDays)
	today := DateOf(in.Today)
	if today.Before(windowEnd) {
		windowEnd = today
	}

	var (
		tempSum, nightSum     float64
		tempCount, nightCount int
	)
	for _, d := range in.Observations {
		day := DateOf(d.Date)
		if !day.After(heading) || day.After(windowEnd) {
			continue
		}
		if d.AvgTemp != nil {
			tempSum += *d.AvgTemp
			tempCount++
		}
		if d.MinTemp != nil {
			nightSum += *d.MinTemp
			nightCount++
		}
	}

	a := HeatAssessment{
		RiskLevel:    RiskLow,
		HeadingDate:  &heading,
		HeadingExact: exact,
		WindowDays:   tempCount,
	}

	if tempCount == 0 {
		a.Message = fmt.Sprintf("[%s] No post-heading observations yet; heat stress not evaluated.", in.FieldName)
		return a
	}

	a.AvgTemp = Round1(tempSum / float64(tempCount))
	if nightCount > 0 {
		a.AvgNightTemp = Round1(nightSum / float64(nightCount))
	}

	switch {
	case a.AvgTemp >= th.HeatHighTemp:
		a.RiskLevel = RiskHigh
	case a.AvgTemp >= th.HeatModerateTemp:
		a.RiskLevel = RiskModerate
		if nightCount > 0 && a.AvgNightTemp >= th.HeatNightHighTemp {
			a.RiskLevel = RiskHigh
			a.NightEscalate = true
		}
	}

	a.Message = heatMessage(in, a, th)
	return a
}

func heatMessage(in HeatInput, a HeatAssessment, th Thresholds) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Grain-filling heat stress: %s", in.FieldName, a.RiskLevel)
	if a.HeadingDate != nil {
		src := "estimated"
		if a.HeadingExact {
			src = "recorded"
		}
		fmt.Fprintf(&b, "\nHeading date (%s): %s", src, a.HeadingDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nMean temperature over %d post-heading days: %.1f°C", a.WindowDays, a.AvgTemp)
	if a.AvgNightTemp != 0 {
		fmt.Fprintf(&b, "\nMean nighttime minimum: %.1f°C", a.AvgNightTemp)
	}
	if a.NightEscalate {
		fmt.Fprintf(&b, "\nWarm nights (>= %.0f°C) raise the risk of chalky grain.", th.HeatNightHighTemp)
	}
	switch a.RiskLevel {
	case RiskHigh:
		b.WriteString("\nKeep water flowing through the paddy to cool the canopy during ripening.")
	case RiskModerate:
		b.WriteString("\nRipening temperatures are elevated; avoid letting the paddy dry out.")
	}
	return b.String()
}
