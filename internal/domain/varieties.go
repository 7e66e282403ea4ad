package domain

import (
	"fmt"
	"math"
	"sort"
)

// Built-in stage tables for the supported varieties. Thresholds come from
// prefectural cultivation guidelines; koshihikari heads earliest and is
// the only variety rated weak against blast.
var varietyTables = map[string]*StageTable{
	"koshihikari": {
		Variety:    "koshihikari",
		Resistance: ResistanceWeak,
		Intervals: []StageInterval{
			{StageTillering, 0, 350, "tillering"},
			{StageMaxTiller, 350, 500, "maximum tillering"},
			{StageMidseasonDrain, 500, 650, "midseason drain window"},
			{StagePanicleFormation, 650, 800, "panicle formation"},
			{StageBooting, 800, 950, "booting"},
			{StageHeading, 950, 1100, "heading"},
			{StageGrainFilling, 1100, 1600, "grain filling"},
			{StageMaturity, 1600, math.Inf(1), "maturity"},
		},
	},
	"hinohikari": {
		Variety:    "hinohikari",
		Resistance: ResistanceMedium,
		Intervals: []StageInterval{
			{StageTillering, 0, 400, "tillering"},
			{StageMaxTiller, 400, 560, "maximum tillering"},
			{StageMidseasonDrain, 560, 720, "midseason drain window"},
			{StagePanicleFormation, 720, 880, "panicle formation"},
			{StageBooting, 880, 1040, "booting"},
			{StageHeading, 1040, 1200, "heading"},
			{StageGrainFilling, 1200, 1750, "grain filling"},
			{StageMaturity, 1750, math.Inf(1), "maturity"},
		},
	},
	"akiroman": {
		Variety:    "akiroman",
		Resistance: ResistanceMedium,
		Intervals: []StageInterval{
			{StageTillering, 0, 380, "tillering"},
			{StageMaxTiller, 380, 540, "maximum tillering"},
			{StageMidseasonDrain, 540, 700, "midseason drain window"},
			{StagePanicleFormation, 700, 860, "panicle formation"},
			{StageBooting, 860, 1010, "booting"},
			{StageHeading, 1010, 1150, "heading"},
			{StageGrainFilling, 1150, 1700, "grain filling"},
			{StageMaturity, 1700, math.Inf(1), "maturity"},
		},
	},
}

func init() {
	for _, t := range varietyTables {
		if err := t.Validate(); err != nil {
			panic(err)
		}
	}
}

// LookupVariety returns the stage table for a variety, or
// ErrUnknownVariety.
func LookupVariety(variety string) (*StageTable, error) {
	t, ok := varietyTables[variety]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariety, variety)
	}
	return t, nil
}

// Varieties lists the supported variety names, sorted.
func Varieties() []string {
	names := make([]string, 0, len(varietyTables))
	for name := range varietyTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
