package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/inakamono/paddy-advisor/internal/domain"
)

// Advice is the full on-demand assessment of one field: current stage
// plus every risk assessor, as of a given day.
type Advice struct {
	FieldID     int64                   `json:"field_id"`
	FieldName   string                  `json:"field_name"`
	Date        time.Time               `json:"date"`
	Accumulated float64                 `json:"accumulated_temp"`
	Stage       domain.StageResult      `json:"stage"`
	Blast       domain.BlastAssessment  `json:"blast"`
	Heat        domain.HeatAssessment   `json:"heat"`
	Water       domain.WaterAssessment  `json:"water"`
	Drain       domain.DrainPlan        `json:"drain"`
	Report      string                  `json:"report"`
}

const blastWindowHours = 72

// Advise runs every assessor against the field's current data and
// renders the morning report. Nothing is persisted and no notification
// fires; this is the read-only view behind the advice endpoint.
func (s *Service) Advise(ctx context.Context, fieldID int64, asOf time.Time) (*Advice, error) {
	field, err := s.store.GetField(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if field.StationID == "" {
		return nil, fmt.Errorf("field %d: %w", fieldID, domain.ErrNoStation)
	}
	if field.TransplantDate == nil {
		return nil, fmt.Errorf("field %d: %w", fieldID, domain.ErrNoTransplantDate)
	}

	eng, err := domain.NewEngine(field, s.thresholds)
	if err != nil {
		return nil, err
	}

	asOf = domain.DateOf(asOf)
	from := domain.DateOf(*field.TransplantDate).AddDate(0, 0, -7)
	obs, err := s.store.DailyObservations(ctx, field.StationID, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	history, err := s.store.StageHistory(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("load stage history: %w", err)
	}

	points := eng.Series(obs)
	accum, recent := seriesTail(points, asOf)
	stage := eng.Table.Classify(accum, recent, s.thresholds)

	samples, err := s.store.HourlyObservations(ctx, field.StationID,
		asOf.Add(-blastWindowHours*time.Hour), asOf.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load hourly observations: %w", err)
	}
	advisoryActive, err := s.store.ActiveAdvisory(ctx, "blast",
		asOf.AddDate(0, 0, -s.thresholds.AdvisoryLookbackDays))
	if err != nil {
		return nil, fmt.Errorf("check advisories: %w", err)
	}

	blast := domain.AssessBlastRisk(domain.BlastInput{
		FieldName:      field.Name,
		Variety:        field.Variety,
		Samples:        samples,
		WindowHours:    blastWindowHours,
		Stage:          stage.Stage,
		AdvisoryActive: advisoryActive,
		Resistance:     eng.Table.Resistance,
	}, s.thresholds)

	heat := domain.AssessHeatStress(eng.Table, domain.HeatInput{
		FieldName:       field.Name,
		Variety:         field.Variety,
		Today:           asOf,
		Accumulated:     accum,
		Observations:    obs,
		History:         history,
		RecentDailyTemp: recent,
	}, s.thresholds)

	water := domain.AssessWaterTemp(domain.WaterInput{
		FieldName:      field.Name,
		Today:          asOf,
		TransplantDate: *field.TransplantDate,
		TodayObs:       obsOn(obs, asOf),
		YesterdayObs:   obsOn(obs, asOf.AddDate(0, 0, -1)),
	}, s.thresholds)

	drain := domain.EstimateDrainTiming(eng.Table, domain.DrainInput{
		FieldName:       field.Name,
		Today:           asOf,
		Accumulated:     accum,
		Observations:    obs,
		History:         history,
		RecentDailyTemp: recent,
	}, s.thresholds)

	a := &Advice{
		FieldID:     field.ID,
		FieldName:   field.Name,
		Date:        asOf,
		Accumulated: accum,
		Stage:       stage,
		Blast:       blast,
		Heat:        heat,
		Water:       water,
		Drain:       drain,
	}
	a.Report = domain.BuildMorningReport(domain.MorningReportInput{
		Field:       field,
		Date:        asOf,
		Accumulated: accum,
		Stage:       stage,
		Blast:       &blast,
		Heat:        &heat,
		Water:       &water,
		Drain:       &drain,
	})
	return a, nil
}

// seriesTail returns the accumulation and trailing 7-day mean as of a day.
func seriesTail(points []domain.DayPoint, asOf time.Time) (float64, float64) {
	last := -1
	for i := range points {
		if !points[i].Date.After(asOf) {
			last = i
		}
	}
	if last < 0 {
		return 0, 20.0
	}
	return points[last].Accum, recentMean(points, last)
}

// obsOn finds the daily record for an exact date.
func obsOn(obs []domain.DailyObservation, d time.Time) *domain.DailyObservation {
	for i := range obs {
		if domain.DateOf(obs[i].Date).Equal(domain.DateOf(d)) {
			return &obs[i]
		}
	}
	return nil
}
