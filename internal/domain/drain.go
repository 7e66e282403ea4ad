package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DrainInput carries the final-drain timing inputs. Observations must be
// chronological daily records covering the post-heading span;
// RecentDailyTemp is the recent 7-day mean, 20.0 when unknown.
type DrainInput struct {
	FieldName       string
	Today           time.Time
	Accumulated     float64
	Observations    []DailyObservation
	History         []StageSnapshot
	RecentDailyTemp float64
}

// DrainPlan is the projected final-drain schedule for one field.
type DrainPlan struct {
	HeadingDate      time.Time `json:"heading_date"`
	HeadingExact     bool      `json:"heading_recorded"`
	PostHeadingAccum float64   `json:"post_heading_accum"`
	HarvestDate      time.Time `json:"harvest_date"`
	DrainWindowStart time.Time `json:"drain_window_start"`
	DrainWindowEnd   time.Time `json:"drain_window_end"`
	DaysToDrain      int       `json:"days_to_drain"`
	Message          string    `json:"message"`
}

// rawPostHeadingAccum sums unmodified mean temperatures after the heading
// date. Harvest readiness is traditionally judged on raw accumulation,
// not base-subtracted degree-days, so no clamping is applied here.
func rawPostHeadingAccum(obs []DailyObservation, heading, today time.Time) float64 {
	var sum float64
	for _, d := range obs {
		day := DateOf(d.Date)
		if !day.After(heading) || day.After(today) {
			continue
		}
		if d.AvgTemp != nil {
			sum += *d.AvgTemp
		}
	}
	return Round1(sum)
}

// EstimateDrainTiming projects the harvest date from raw post-heading
// heat accumulation (maturity at MaturityRawAccum) and places the final
// drain DrainLeadDaysMax to DrainLeadDaysMin days before it. A heading
// date still in the future pushes the whole schedule out by the days
// remaining until heading.
func EstimateDrainTiming(table *StageTable, in DrainInput, th Thresholds) DrainPlan {
	recent := in.RecentDailyTemp
	if recent <= 0 {
		recent = 20.0
	}
	today := DateOf(in.Today)
	heading, exact := ResolveHeadingDate(table, in.Accumulated, in.History, today, recent, th)

	var postAccum float64
	daysAhead := 0
	if heading.After(today) {
		daysAhead = DaysBetween(today, heading)
	} else {
		postAccum = rawPostHeadingAccum(in.Observations, heading, today)
	}

	remaining := math.Max(th.MaturityRawAccum-postAccum, 0)
	daysToMaturity := int(remaining/math.Max(recent, 1.0)) + daysAhead

	harvest := today.AddDate(0, 0, daysToMaturity)
	windowStart := harvest.AddDate(0, 0, -th.DrainLeadDaysMax)
	windowEnd := harvest.AddDate(0, 0, -th.DrainLeadDaysMin)

	p := DrainPlan{
		HeadingDate:      heading,
		HeadingExact:     exact,
		PostHeadingAccum: postAccum,
		HarvestDate:      harvest,
		DrainWindowStart: windowStart,
		DrainWindowEnd:   windowEnd,
		DaysToDrain:      DaysBetween(today, windowStart),
	}
	p.Message = drainMessage(in, p)
	return p
}

func drainMessage(in DrainInput, p DrainPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Final drain plan", in.FieldName)
	src := "estimated"
	if p.HeadingExact {
		src = "recorded"
	}
	fmt.Fprintf(&b, "\nHeading date (%s): %s", src, p.HeadingDate.Format("2006-01-02"))
	if p.PostHeadingAccum > 0 {
		fmt.Fprintf(&b, "\nPost-heading accumulated heat: %.1f°C·d", p.PostHeadingAccum)
	}
	fmt.Fprintf(&b, "\nProjected harvest: %s", p.HarvestDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "\nDrain window: %s to %s",
		p.DrainWindowStart.Format("2006-01-02"), p.DrainWindowEnd.Format("2006-01-02"))
	switch {
	case p.DaysToDrain < 0:
		b.WriteString("\nThe drain window has already opened; drain as soon as field conditions allow.")
	case p.DaysToDrain == 0:
		b.WriteString("\nThe drain window opens today.")
	default:
		fmt.Fprintf(&b, "\nDays until the drain window opens: %d", p.DaysToDrain)
	}
	return b.String()
}
