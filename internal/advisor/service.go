package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inakamono/paddy-advisor/internal/domain"
	"github.com/inakamono/paddy-advisor/internal/observability"
)

// Store is the persistence surface the service needs: field registry,
// weather archive, stage history, advisories, season state, and the
// notification log.
type Store interface {
	ListFields(ctx context.Context) ([]domain.Field, error)
	GetField(ctx context.Context, id int64) (domain.Field, error)

	DailyObservations(ctx context.Context, stationID string, from, to time.Time) ([]domain.DailyObservation, error)
	HourlyObservations(ctx context.Context, stationID string, from, to time.Time) ([]domain.WetnessSample, error)

	StageHistory(ctx context.Context, fieldID int64) ([]domain.StageSnapshot, error)
	SaveStageSnapshot(ctx context.Context, snap domain.StageSnapshot) error

	ActiveAdvisory(ctx context.Context, pestName string, since time.Time) (bool, error)

	SeasonState(ctx context.Context, fieldID int64) (*domain.SeasonState, error)
	SaveSeasonState(ctx context.Context, state *domain.SeasonState) error

	SaveNotifications(ctx context.Context, events []domain.Event) error
}

// Publisher delivers notification events to the outside world.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Service runs the daily advisory evaluation across registered fields.
type Service struct {
	store      Store
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	thresholds domain.Thresholds
	location   *time.Location
	ready      atomic.Bool
}

// New creates a Service. publisher may be nil when delivery is disabled;
// events are still logged and persisted.
func New(store Store, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:      store,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		thresholds: domain.DefaultThresholds(),
		location:   loc,
	}
}

// CheckReadiness returns nil once at least one evaluation run has
// completed, or an error describing why the service is not yet ready.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no evaluation run has completed yet")
	}
	return nil
}

// EvaluateField replays the field's season through the decision engine
// up to asOf, persisting new notifications, the season state, and the
// day's stage snapshot. Days already evaluated emit nothing, so catch-up
// after an outage and a routine daily run are the same call.
func (s *Service) EvaluateField(ctx context.Context, fieldID int64, asOf time.Time) ([]domain.Event, error) {
	start := time.Now()

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

	state, err := s.store.SeasonState(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("load season state: %w", err)
	}
	if state == nil {
		state = domain.NewSeasonState(fieldID)
	}

	points := eng.Series(obs)
	events := eng.EvaluateRange(state, points)

	if snap, ok := s.snapshotFor(eng, field, points, asOf); ok {
		if err := s.store.SaveStageSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("save stage snapshot: %w", err)
		}
	}

	if len(events) > 0 {
		if err := s.store.SaveNotifications(ctx, events); err != nil {
			return nil, fmt.Errorf("save notifications: %w", err)
		}
	}
	if err := s.store.SaveSeasonState(ctx, state); err != nil {
		return nil, fmt.Errorf("save season state: %w", err)
	}

	if len(events) > 0 && s.publisher != nil {
		if err := s.publisher.Publish(ctx, events); err != nil {
			// Already persisted; delivery failure is not an evaluation failure.
			s.metrics.PublishErrors.Inc()
			s.logger.Error("notification publish failed", "field_id", fieldID, "error", err)
		}
	}

	for _, e := range events {
		s.metrics.NotificationsEmitted.WithLabelValues(string(e.Kind), string(e.Severity)).Inc()
		s.logger.Info("notification",
			"field_id", e.FieldID, "kind", e.Kind, "severity", e.Severity,
			"date", e.Date.Format("2006-01-02"), "title", e.Title)
	}

	s.metrics.FieldsEvaluated.Inc()
	s.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	return events, nil
}

// snapshotFor derives the day's stage record from the series.
func (s *Service) snapshotFor(eng *domain.Engine, field domain.Field, points []domain.DayPoint, asOf time.Time) (domain.StageSnapshot, bool) {
	last := -1
	for i := range points {
		if !points[i].Date.After(asOf) {
			last = i
		}
	}
	if last < 0 {
		return domain.StageSnapshot{}, false
	}
	p := points[last]
	res := eng.Table.Classify(p.Accum, recentMean(points, last), s.thresholds)
	return domain.StageSnapshot{
		FieldID:            field.ID,
		Date:               p.Date,
		AccumulatedTemp:    p.Accum,
		Stage:              res.Stage,
		ProgressPct:        res.ProgressPct,
		DaysFromTransplant: domain.DaysBetween(*field.TransplantDate, p.Date),
	}, true
}

// RunAll evaluates every registered field for the given day, one
// goroutine per field. Individual failures are logged and counted, not
// fatal to the run.
func (s *Service) RunAll(ctx context.Context, asOf time.Time) {
	fields, err := s.store.ListFields(ctx)
	if err != nil {
		s.logger.Error("list fields failed", "error", err)
		s.metrics.EvaluationErrors.Inc()
		return
	}

	var wg sync.WaitGroup
	for _, f := range fields {
		wg.Add(1)
		go func(f domain.Field) {
			defer wg.Done()
			if _, err := s.EvaluateField(ctx, f.ID, asOf); err != nil {
				s.metrics.EvaluationErrors.Inc()
				s.logger.Error("field evaluation failed", "field_id", f.ID, "name", f.Name, "error", err)
			}
		}(f)
	}
	wg.Wait()

	s.ready.Store(true)
	s.logger.Info("evaluation run complete", "fields", len(fields), "date", domain.DateOf(asOf).Format("2006-01-02"))
}

// Today returns the current calendar day in the service's timezone.
func (s *Service) Today() time.Time {
	return domain.Today(s.location)
}

// recentMean is the trailing 7-day mean temperature ending at index i,
// 20.0 when the window holds no readings.
func recentMean(points []domain.DayPoint, i int) float64 {
	lo := i - 6
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
		return 20.0
	}
	return sum / float64(count)
}
