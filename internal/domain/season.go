package domain

import "time"

// Gates tracks which one-shot notifications have already fired this
// season. Once a gate is set the corresponding advisory never repeats,
// including across process restarts when the state is persisted.
type Gates struct {
	WaterTemp    bool `json:"water_temp"`
	DrainPre     bool `json:"drain_pre"`
	DrainStart   bool `json:"drain_start"`
	DrainEnd     bool `json:"drain_end"`
	BlastRisk    bool `json:"blast_risk"`
	Heading      bool `json:"heading"`
	HeatModerate bool `json:"heat_moderate"`
	HeatHigh     bool `json:"heat_high"`
	FinalDrain   bool `json:"final_drain"`
}

// SeasonState is the per-field engine state carried between daily
// evaluations: the fired gates plus the dates anchoring midseason-drain
// duration and post-heading arithmetic. The zero value is a fresh
// season.
type SeasonState struct {
	FieldID        int64      `json:"field_id"`
	Gates          Gates      `json:"gates"`
	DrainStartDate *time.Time `json:"drain_start_date,omitempty"`
	HeadingDate    *time.Time `json:"heading_date,omitempty"`
	LastEvaluated  *time.Time `json:"last_evaluated,omitempty"`
}

// NewSeasonState returns a fresh state for a field.
func NewSeasonState(fieldID int64) *SeasonState {
	return &SeasonState{FieldID: fieldID}
}

// markEvaluated advances the evaluation cursor, never backwards.
func (s *SeasonState) markEvaluated(day time.Time) {
	d := DateOf(day)
	if s.LastEvaluated == nil || d.After(*s.LastEvaluated) {
		s.LastEvaluated = &d
	}
}

// Evaluated reports whether the given day has already been processed.
func (s *SeasonState) Evaluated(day time.Time) bool {
	return s.LastEvaluated != nil && !DateOf(day).After(*s.LastEvaluated)
}

// recordDrainStart pins the midseason-drain start date, first writer wins.
func (s *SeasonState) recordDrainStart(day time.Time) {
	if s.DrainStartDate == nil {
		d := DateOf(day)
		s.DrainStartDate = &d
	}
}

// recordHeading pins the heading date, first writer wins.
func (s *SeasonState) recordHeading(day time.Time) {
	if s.HeadingDate == nil {
		d := DateOf(day)
		s.HeadingDate = &d
	}
}
