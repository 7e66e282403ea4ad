package domain

import (
	"fmt"
	"math"
)

// StageKey identifies one phenological stage. Keys are ordered; the
// engine compares positions via StageTable.Index.
type StageKey string

const (
	StageTillering        StageKey = "tillering"
	StageMaxTiller        StageKey = "max_tiller"
	StageMidseasonDrain   StageKey = "midseason_drain"
	StagePanicleFormation StageKey = "panicle_formation"
	StageBooting          StageKey = "booting"
	StageHeading          StageKey = "heading"
	StageGrainFilling     StageKey = "grain_filling"
	StageMaturity         StageKey = "maturity"
)

// panicleSensitiveStages have elevated blast (panicle blast)
// susceptibility; the humidity threshold drops from 90 % to 85 % here.
var panicleSensitiveStages = map[StageKey]bool{
	StagePanicleFormation: true,
	StageBooting:          true,
	StageHeading:          true,
}

// PanicleSensitive reports whether the stage is in the panicle-blast
// danger window.
func PanicleSensitive(s StageKey) bool { return panicleSensitiveStages[s] }

// StageInterval is one [Low, High) slice of the accumulated-heat axis.
// The final interval of a table is unbounded (High = +Inf) and matches
// any value at or above Low.
type StageInterval struct {
	Key   StageKey
	Low   float64
	High  float64 // math.Inf(1) for the final stage
	Label string
}

// Unbounded reports whether the interval has no upper limit.
func (iv StageInterval) Unbounded() bool { return math.IsInf(iv.High, 1) }

// StageTable maps accumulated degree-days to phenological stages for one
// variety. Tables are static reference data, validated once at load and
// read-only afterwards.
type StageTable struct {
	Variety    string
	Resistance Resistance
	Intervals  []StageInterval
}

// Validate checks that the intervals start at zero, are ordered and
// contiguous with no gaps or overlaps, and end unbounded.
func (t *StageTable) Validate() error {
	if len(t.Intervals) == 0 {
		return fmt.Errorf("stage table %q: no intervals", t.Variety)
	}
	if t.Intervals[0].Low != 0 {
		return fmt.Errorf("stage table %q: first interval starts at %g, want 0", t.Variety, t.Intervals[0].Low)
	}
	for i, iv := range t.Intervals {
		last := i == len(t.Intervals)-1
		if last {
			if !iv.Unbounded() {
				return fmt.Errorf("stage table %q: final stage %q must be unbounded", t.Variety, iv.Key)
			}
			continue
		}
		if iv.High <= iv.Low {
			return fmt.Errorf("stage table %q: stage %q has non-positive span [%g, %g)", t.Variety, iv.Key, iv.Low, iv.High)
		}
		if next := t.Intervals[i+1]; next.Low != iv.High {
			return fmt.Errorf("stage table %q: gap or overlap between %q and %q (%g vs %g)",
				t.Variety, iv.Key, next.Key, iv.High, next.Low)
		}
	}
	return nil
}

// Index returns the position of a stage key in the table, or -1.
func (t *StageTable) Index(k StageKey) int {
	for i, iv := range t.Intervals {
		if iv.Key == k {
			return i
		}
	}
	return -1
}

// LowThreshold returns the accumulated-heat lower bound at which the
// given stage begins.
func (t *StageTable) LowThreshold(k StageKey) (float64, bool) {
	if i := t.Index(k); i >= 0 {
		return t.Intervals[i].Low, true
	}
	return 0, false
}

// Label returns the display label for a stage key, or the key itself
// when the table does not carry it.
func (t *StageTable) Label(k StageKey) string {
	if i := t.Index(k); i >= 0 {
		return t.Intervals[i].Label
	}
	return string(k)
}

// StageResult is the classification of one accumulated-heat value.
type StageResult struct {
	Stage          StageKey `json:"stage"`
	Label          string   `json:"label"`
	ProgressPct    float64  `json:"progress_pct"`
	DaysToNext     *int     `json:"days_to_next,omitempty"`
	NextStageLabel string   `json:"next_stage_label,omitempty"`
}

// Classify maps an accumulated-heat value to its stage. recentDailyTemp
// is the latest mean daily temperature, used only to project the days
// remaining until the next stage; its effective rate is floored at 0.1
// °C·d/day to keep the projection finite. The function is pure and
// time-independent.
func (t *StageTable) Classify(accumulated float64, recentDailyTemp float64, th Thresholds) StageResult {
	idx := -1
	for i, iv := range t.Intervals {
		if iv.Unbounded() {
			if accumulated >= iv.Low {
				idx = i
				break
			}
			continue
		}
		if accumulated >= iv.Low && accumulated < iv.High {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Negative accumulation cannot occur with clamped contributions,
		// but classification still answers with the first stage.
		idx = 0
	}

	iv := t.Intervals[idx]
	res := StageResult{Stage: iv.Key, Label: iv.Label}

	if iv.Unbounded() {
		res.ProgressPct = 100.0
	} else {
		span := iv.High - iv.Low
		pct := (accumulated - iv.Low) / span * 100
		res.ProgressPct = Round1(math.Min(math.Max(pct, 0), 100))
	}

	if idx+1 < len(t.Intervals) {
		next := t.Intervals[idx+1]
		res.NextStageLabel = next.Label
		remaining := math.Max(next.Low-accumulated, 0)
		dailyEffective := math.Max(recentDailyTemp-th.BaseTemperature, 0.1)
		days := int(math.Ceil(remaining / dailyEffective))
		res.DaysToNext = &days
	}

	return res
}
