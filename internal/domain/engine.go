package domain

import (
	"math"
	"time"
)

// Severity classifies how urgently a notification should reach the
// grower. Actions ask for field work, warnings flag risk, info marks
// milestones.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityAction  Severity = "action"
)

// EventKind names the one-shot advisory types the engine can emit.
type EventKind string

const (
	EventWaterTemp    EventKind = "water_temp"
	EventDrainPre     EventKind = "drain_pre"
	EventDrainStart   EventKind = "drain_start"
	EventDrainEnd     EventKind = "drain_end"
	EventBlastRisk    EventKind = "blast_risk"
	EventHeading      EventKind = "heading"
	EventHeatModerate EventKind = "heat_moderate"
	EventHeatHigh     EventKind = "heat_high"
	EventFinalDrain   EventKind = "final_drain"
)

// Event is one advisory emitted by the engine for a field on a day.
type Event struct {
	FieldID  int64     `json:"field_id"`
	Date     time.Time `json:"date"`
	Kind     EventKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Title    string    `json:"title"`
	Detail   string    `json:"detail"`
}

// Engine runs the daily advisory decision for one field. It is a pure
// function of the field's series and season state; all persistence and
// delivery live in the caller.
type Engine struct {
	Field      Field
	Table      *StageTable
	Thresholds Thresholds
}

// NewEngine builds an engine for a registered field. Fails with
// ErrUnknownVariety when no stage table covers the field's variety.
func NewEngine(f Field, th Thresholds) (*Engine, error) {
	table, err := LookupVariety(f.Variety)
	if err != nil {
		return nil, err
	}
	return &Engine{Field: f, Table: table, Thresholds: th}, nil
}

// elevations returns the correction pair, nil unless both are known.
func (e *Engine) elevations() *Elevations {
	if e.Field.ElevationM == nil || e.Field.StationElevation == nil {
		return nil
	}
	return &Elevations{FieldM: *e.Field.ElevationM, StationM: *e.Field.StationElevation}
}

// Series derives the field's day-by-day season series from observations.
func (e *Engine) Series(obs []DailyObservation) []DayPoint {
	if e.Field.TransplantDate == nil {
		return nil
	}
	return BuildSeries(e.Table, *e.Field.TransplantDate, obs, e.Thresholds, e.elevations())
}

// EvaluateRange replays every unevaluated day of the series through the
// decision in order, mutating state as it goes. Running it over a whole
// season in one call or one day at a time yields the same events on the
// same dates.
func (e *Engine) EvaluateRange(state *SeasonState, points []DayPoint) []Event {
	var events []Event
	for i := range points {
		if state.Evaluated(points[i].Date) {
			continue
		}
		events = append(events, e.EvaluateDay(state, points, i)...)
	}
	return events
}

// EvaluateDay runs the fixed decision order for one day of the series.
// Each rule fires at most once per season; the gate is set the first
// time its condition holds and never cleared.
func (e *Engine) EvaluateDay(state *SeasonState, points []DayPoint, i int) []Event {
	p := points[i]
	th := e.Thresholds
	day := p.Date
	defer state.markEvaluated(day)

	// Anchor dates are recorded regardless of which gates fire.
	if p.Stage == StageMidseasonDrain {
		state.recordDrainStart(day)
	}
	if idx := e.Table.Index(p.Stage); idx >= 0 && idx >= e.Table.Index(StageHeading) {
		state.recordHeading(day)
	}

	var events []Event
	emit := func(kind EventKind, sev Severity, title, detail string) {
		events = append(events, Event{
			FieldID: e.Field.ID, Date: day, Kind: kind,
			Severity: sev, Title: title, Detail: detail,
		})
	}

	daysPost := 0
	if e.Field.TransplantDate != nil {
		daysPost = DaysBetween(*e.Field.TransplantDate, day)
	}

	// Establishment cold-water check.
	if !state.Gates.WaterTemp && daysPost >= 1 && daysPost <= th.EstablishmentDays {
		if wt, ok := EstimateWaterTemp(&p.Obs); ok && wt < th.WaterTempThreshold {
			state.Gates.WaterTemp = true
			title, detail := waterTempText(e.Field, wt, daysPost, th)
			emit(EventWaterTemp, SeverityWarning, title, detail)
		}
	}

	// Midseason-drain heads-up while still tillering.
	if !state.Gates.DrainPre && (p.Stage == StageTillering || p.Stage == StageMaxTiller) {
		drainLow, _ := e.Table.LowThreshold(StageMidseasonDrain)
		if remaining := drainLow - p.Accum; remaining > 0 {
			dailyEff := trailingMeanEff(points, i, 5)
			daysTo := remaining / math.Max(dailyEff, 0.1)
			if daysTo <= float64(th.DrainLeadDaysMin) {
				state.Gates.DrainPre = true
				title, detail := drainPreText(e.Field, int(math.Ceil(daysTo)))
				emit(EventDrainPre, SeverityInfo, title, detail)
			}
		}
	}

	// Midseason drain start.
	if !state.Gates.DrainStart && p.Stage == StageMidseasonDrain {
		state.Gates.DrainStart = true
		title, detail := drainStartText(e.Field, e.headingEstimate(state, points, i))
		emit(EventDrainStart, SeverityAction, title, detail)
	}

	// Midseason drain end: ten days of drying, or seven once the
	// pre-heading deadline is near.
	if !state.Gates.DrainEnd && state.Gates.DrainStart && state.DrainStartDate != nil {
		drainDays := DaysBetween(*state.DrainStartDate, day)
		deadline := e.headingEstimate(state, points, i).AddDate(0, 0, -25)
		if drainDays >= 10 || (drainDays >= 7 && !day.Before(deadline)) {
			state.Gates.DrainEnd = true
			title, detail := drainEndText(e.Field, drainDays)
			emit(EventDrainEnd, SeverityAction, title, detail)
		}
	}

	// Blast conditions during the panicle-sensitive window, scored over
	// the trailing three days of daily records.
	if !state.Gates.BlastRisk && PanicleSensitive(p.Stage) {
		if score := blastDailyScore(points, i, th); score >= 24 {
			state.Gates.BlastRisk = true
			title, detail := blastEventText(e.Field, p.Stage, score)
			emit(EventBlastRisk, SeverityWarning, title, detail)
		}
	}

	// Heading milestone.
	if !state.Gates.Heading && p.Stage == StageHeading {
		state.Gates.Heading = true
		title, detail := headingText(e.Field, p.Accum, daysPost)
		emit(EventHeading, SeverityInfo, title, detail)
	}

	// Ripening heat stress, from day 3 through day 20 after heading.
	if state.HeadingDate != nil {
		dp := DaysBetween(*state.HeadingDate, day)
		if dp >= 3 && dp <= th.HeatEvalDays {
			if avg, n := postHeadingMean(points, i, *state.HeadingDate); n >= 3 {
				if !state.Gates.HeatModerate && avg >= th.HeatModerateTemp {
					state.Gates.HeatModerate = true
					title, detail := heatText(e.Field, avg, dp, RiskModerate)
					emit(EventHeatModerate, SeverityInfo, title, detail)
				}
				if !state.Gates.HeatHigh && avg >= th.HeatHighTemp {
					state.Gates.HeatHigh = true
					title, detail := heatText(e.Field, avg, dp, RiskHigh)
					emit(EventHeatHigh, SeverityWarning, title, detail)
				}
			}
		}
	}

	// Final drain ahead of harvest.
	if !state.Gates.FinalDrain && (p.Stage == StageGrainFilling || p.Stage == StageMaturity) &&
		state.HeadingDate != nil && day.After(*state.HeadingDate) {
		postAccum := rawPostHeadingSeries(points, i, *state.HeadingDate)
		remaining := math.Max(th.MaturityRawAccum-postAccum, 0)
		recentAvg := trailingMeanAvg(points, i, 7, 22.0)
		daysToHarvest := int(remaining / math.Max(recentAvg, 1.0))
		if daysToHarvest <= 14 {
			state.Gates.FinalDrain = true
			harvest := day.AddDate(0, 0, daysToHarvest)
			drainBy := harvest.AddDate(0, 0, -th.DrainLeadDaysMax)
			title, detail := finalDrainText(e.Field, postAccum, harvest, drainBy)
			emit(EventFinalDrain, SeverityAction, title, detail)
		}
	}

	return events
}

// headingEstimate returns the recorded heading anchor, or a same-day
// projection from the recent temperature trend when heading has not
// happened yet.
func (e *Engine) headingEstimate(state *SeasonState, points []DayPoint, i int) time.Time {
	if state.HeadingDate != nil {
		return *state.HeadingDate
	}
	p := points[i]
	headingLow, _ := e.Table.LowThreshold(StageHeading)
	remaining := math.Max(headingLow-p.Accum, 0)
	recent := trailingMeanAvg(points, i, 7, 20.0)
	days := int(remaining / math.Max(recent-e.Thresholds.BaseTemperature, 0.1))
	return p.Date.AddDate(0, 0, days)
}

// blastDailyScore approximates leaf-wetness hours from the trailing
// three daily records: a day in the infection temperature band with
// humidity at or above the panicle threshold counts a full wet day,
// humidity just under it counts half.
func blastDailyScore(points []DayPoint, i int, th Thresholds) int {
	lo := i - 2
	if lo < 0 {
		lo = 0
	}
	score := 0
	for j := lo; j <= i; j++ {
		o := points[j].Obs
		if o.AvgTemp == nil || o.Humidity == nil {
			continue
		}
		inBand := *o.AvgTemp >= th.BlastOptimalTempMin && *o.AvgTemp <= th.BlastOptimalTempMax
		switch {
		case inBand && *o.Humidity >= th.BlastHumidityPanicle:
			score += 24
		case inBand && *o.Humidity >= 80:
			score += 12
		}
	}
	return score
}

// postHeadingMean averages mean temperatures of the days after heading
// through index i.
func postHeadingMean(points []DayPoint, i int, heading time.Time) (float64, int) {
	var sum float64
	count := 0
	for j := 0; j <= i; j++ {
		if !points[j].Date.After(heading) {
			continue
		}
		if t := points[j].Obs.AvgTemp; t != nil {
			sum += *t
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

// rawPostHeadingSeries sums raw mean temperatures after heading through
// index i, the harvest-readiness accumulation.
func rawPostHeadingSeries(points []DayPoint, i int, heading time.Time) float64 {
	var sum float64
	for j := 0; j <= i; j++ {
		if !points[j].Date.After(heading) {
			continue
		}
		if t := points[j].Obs.AvgTemp; t != nil {
			sum += *t
		}
	}
	return Round1(sum)
}
