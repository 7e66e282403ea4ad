package domain

import (
	"fmt"
	"strings"
	"time"
)

func waterTempText(f Field, wt float64, daysPost int, th Thresholds) (string, string) {
	title := fmt.Sprintf("[%s] Cold water during establishment", f.Name)
	detail := fmt.Sprintf(
		"Estimated water temperature %.1f°C on day %d after transplant, below %.0f°C.\nRaise the water level to protect the seedlings from cold.",
		wt, daysPost, th.WaterTempThreshold)
	return title, detail
}

func drainPreText(f Field, daysTo int) (string, string) {
	title := fmt.Sprintf("[%s] Midseason drain approaching", f.Name)
	detail := fmt.Sprintf(
		"Maximum tillering is about %d days out.\nPlan to start the midseason drain once tiller counts stop rising.",
		daysTo)
	return title, detail
}

func drainStartText(f Field, headingEst time.Time) (string, string) {
	title := fmt.Sprintf("[%s] Start the midseason drain", f.Name)
	detail := fmt.Sprintf(
		"The crop has reached the midseason-drain stage.\nDrain the paddy and let the surface crack lightly.\nProjected heading: %s. Finish drying at least 25 days before it.",
		headingEst.Format("2006-01-02"))
	return title, detail
}

func drainEndText(f Field, drainDays int) (string, string) {
	title := fmt.Sprintf("[%s] End the midseason drain", f.Name)
	detail := fmt.Sprintf(
		"The paddy has dried for %d days.\nRe-flood now and move to intermittent irrigation through panicle formation.",
		drainDays)
	return title, detail
}

func blastEventText(f Field, stage StageKey, score int) (string, string) {
	title := fmt.Sprintf("[%s] Blast infection conditions", f.Name)
	detail := fmt.Sprintf(
		"Warm, humid weather has persisted during the %s stage (about %d favorable hours over three days).\nThe panicle is exposed; check the canopy and consider a preventive fungicide.",
		stage, score)
	return title, detail
}

func headingText(f Field, accum float64, daysPost int) (string, string) {
	title := fmt.Sprintf("[%s] Heading has begun", f.Name)
	detail := fmt.Sprintf(
		"Accumulated heat reached %.1f°C·d on day %d after transplant.\nKeep the paddy flooded for the next two weeks; the crop is most water-sensitive now.",
		accum, daysPost)
	return title, detail
}

func heatText(f Field, avg float64, daysPost int, level RiskLevel) (string, string) {
	title := fmt.Sprintf("[%s] Ripening heat stress: %s", f.Name, level)
	detail := fmt.Sprintf(
		"Mean temperature over the %d days since heading is %.1f°C.",
		daysPost, avg)
	if level == RiskHigh {
		detail += "\nHigh risk of chalky grain. Run cool water through the paddy, preferably at night."
	} else {
		detail += "\nRipening temperatures are elevated; keep water moving and avoid drying the paddy."
	}
	return title, detail
}

func finalDrainText(f Field, postAccum float64, harvest, drainBy time.Time) (string, string) {
	title := fmt.Sprintf("[%s] Schedule the final drain", f.Name)
	detail := fmt.Sprintf(
		"Post-heading accumulated heat is %.1f°C·d.\nProjected harvest: %s. Drain the paddy by %s so the ground firms up for machinery.",
		postAccum, harvest.Format("2006-01-02"), drainBy.Format("2006-01-02"))
	return title, detail
}

// MorningReportInput gathers everything the daily summary needs.
type MorningReportInput struct {
	Field       Field
	Date        time.Time
	Accumulated float64
	Stage       StageResult
	Blast       *BlastAssessment
	Heat        *HeatAssessment
	Water       *WaterAssessment
	Drain       *DrainPlan
}

// BuildMorningReport renders the daily field summary delivered each
// morning: stage and progress first, then any assessor that has
// something to say.
func BuildMorningReport(in MorningReportInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Morning report for %s (%s)\n", in.Field.Name, in.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Variety: %s\n", in.Field.Variety)
	fmt.Fprintf(&b, "Accumulated heat: %.1f°C·d\n", in.Accumulated)
	fmt.Fprintf(&b, "Stage: %s (%.0f%% through)", in.Stage.Label, in.Stage.ProgressPct)
	if in.Stage.DaysToNext != nil {
		fmt.Fprintf(&b, ", about %d days to %s", *in.Stage.DaysToNext, in.Stage.NextStageLabel)
	}
	b.WriteString("\n")

	if in.Water != nil && in.Water.Applicable {
		fmt.Fprintf(&b, "\nEstablishment water: %s\n", in.Water.RiskLevel)
		if in.Water.EstimatedTemp != nil {
			fmt.Fprintf(&b, "Estimated water temperature: %.1f°C\n", *in.Water.EstimatedTemp)
		}
	}
	if in.Blast != nil {
		fmt.Fprintf(&b, "\nBlast risk: %s (wet run %.0f h)\n", in.Blast.RiskLevel, in.Blast.WetnessHours)
	}
	if in.Heat != nil && in.Heat.WindowDays > 0 {
		fmt.Fprintf(&b, "\nRipening heat: %s (mean %.1f°C over %d days)\n",
			in.Heat.RiskLevel, in.Heat.AvgTemp, in.Heat.WindowDays)
	}
	if in.Drain != nil {
		fmt.Fprintf(&b, "\nProjected harvest %s, drain window %s to %s\n",
			in.Drain.HarvestDate.Format("2006-01-02"),
			in.Drain.DrainWindowStart.Format("2006-01-02"),
			in.Drain.DrainWindowEnd.Format("2006-01-02"))
	}
	return b.String()
}
