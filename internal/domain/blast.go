package domain

import (
	"fmt"
	"strings"
)

// BlastInput carries everything the blast assessor needs. Samples must be
// chronologically ordered and cover the trailing evaluation window
// (WindowHours, default 72 in live operation).
type BlastInput struct {
	FieldName      string
	Variety        string
	Samples        []WetnessSample
	WindowHours    int
	Stage          StageKey // "" when the stage could not be determined
	AdvisoryActive bool     // a matching pest advisory is active in the lookback window
	Resistance     Resistance
}

// BlastAssessment is the blast-disease risk verdict for one field.
type BlastAssessment struct {
	RiskLevel        RiskLevel `json:"risk_level"`
	WetnessHours     float64   `json:"leaf_wetness_hours"`
	WetnessMeanTemp  float64   `json:"avg_temp_during_wetness"`
	AdvisoryActive   bool      `json:"advisory_active"`
	PanicleSensitive bool      `json:"is_panicle_sensitive"`
	Stage            StageKey  `json:"current_stage,omitempty"`
	Message          string    `json:"message"`
}

// AssessBlastRisk scans the sample window for the longest contiguous run
// of infection-favorable conditions (20–28 °C and humidity at or above
// the threshold), maps the run length to a base risk, and escalates one
// level for an active advisory and one more for a weak variety, capped
// at high.
func AssessBlastRisk(in BlastInput, th Thresholds) BlastAssessment {
	sensitive := PanicleSensitive(in.Stage)
	humidityThreshold := th.BlastHumidity
	if sensitive {
		humidityThreshold = th.BlastHumidityPanicle
	}

	hours, meanTemp := longestWetnessRun(in.Samples, humidityThreshold, th)

	level := RiskLow
	switch {
	case hours >= th.BlastHighHours:
		level = RiskHigh
	case hours >= th.BlastModerateHours:
		level = RiskModerate
	}

	if in.AdvisoryActive {
		level = level.Escalate()
	}
	if in.Resistance == ResistanceWeak {
		level = level.Escalate()
	}

	a := BlastAssessment{
		RiskLevel:        level,
		WetnessHours:     hours,
		WetnessMeanTemp:  meanTemp,
		AdvisoryActive:   in.AdvisoryActive,
		PanicleSensitive: sensitive,
		Stage:            in.Stage,
	}
	a.Message = blastMessage(in, a, th)
	return a
}

// longestWetnessRun returns the longest contiguous run of wet samples
// (in sample counts, hours at hourly resolution) and the mean air
// temperature during that specific run. Samples missing temperature or
// humidity break the current run.
func longestWetnessRun(samples []WetnessSample, humidityThreshold float64, th Thresholds) (float64, float64) {
	var (
		maxRun       int
		maxRunTemps  []float64
		current      int
		currentTemps []float64
	)

	endRun := func() {
		if current > maxRun {
			maxRun = current
			maxRunTemps = append([]float64(nil), currentTemps...)
		}
		current = 0
		currentTemps = currentTemps[:0]
	}

	for _, s := range samples {
		if s.AirTemp == nil || s.Humidity == nil {
			endRun()
			continue
		}
		wet := *s.AirTemp >= th.BlastOptimalTempMin &&
			*s.AirTemp <= th.BlastOptimalTempMax &&
			*s.Humidity >= humidityThreshold
		if wet {
			current++
			currentTemps = append(currentTemps, *s.AirTemp)
			continue
		}
		endRun()
	}
	endRun()

	if len(maxRunTemps) == 0 {
		return float64(maxRun), 0.0
	}
	var sum float64
	for _, t := range maxRunTemps {
		sum += t
	}
	return float64(maxRun), Round1(sum / float64(len(maxRunTemps)))
}

func blastMessage(in BlastInput, a BlastAssessment, th Thresholds) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Blast disease risk: %s", in.FieldName, a.RiskLevel)
	fmt.Fprintf(&b, "\nLongest leaf-wetness run in the past %d hours: %.0f h", in.WindowHours, a.WetnessHours)
	if a.WetnessMeanTemp > 0 {
		fmt.Fprintf(&b, "\nMean temperature during the wet run: %.1f°C", a.WetnessMeanTemp)
	}
	if a.AdvisoryActive {
		b.WriteString("\nA blast advisory is active for the region.")
	}
	if in.Resistance == ResistanceWeak {
		fmt.Fprintf(&b, "\n%s is rated weak against blast; watch closely.", in.Variety)
	}
	if a.PanicleSensitive {
		fmt.Fprintf(&b, "\nPanicle-blast danger window (%s): humidity threshold lowered to %.0f%%.", a.Stage, th.BlastHumidityPanicle)
	}
	switch a.RiskLevel {
	case RiskHigh:
		b.WriteString("\nInfection risk is high. Consider a preventive fungicide application.")
	case RiskModerate:
		b.WriteString("\nSome infection risk. Step up field scouting.")
	}
	return b.String()
}
