package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-prediction/internal/common"
	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/model"
	"github.com/i474232898/weather-prediction/internal/observability"
)

const (
	rainHorizonDays = 7
	precipStartDays = 1
	precipEndDays   = 3
	rainThreshold   = 0.5
	defaultLookback = 60
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Location          Location
	LookbackDays      int
	RequiredVariables []string
	Clock             clockwork.Clock
	Logger            *slog.Logger
	Metrics           *observability.Metrics
}

// Service builds feature rows from the history window preceding a reference
// date and scores them against the prediction models.
type Service struct {
	store    Store
	provider HistoryProvider
	models   ModelStore
	engine   *features.Engine

	location     Location
	lookbackDays int
	required     []string
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewService creates a new Service.
func NewService(store Store, provider HistoryProvider, models ModelStore, engine *features.Engine, opts Options) *Service {
	s := &Service{
		store:        store,
		provider:     provider,
		models:       models,
		engine:       engine,
		location:     opts.Location,
		lookbackDays: opts.LookbackDays,
		required:     opts.RequiredVariables,
		clock:        opts.Clock,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
	if s.lookbackDays <= 0 {
		s.lookbackDays = defaultLookback
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = observability.NopLogger()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetricsForTesting()
	}
	return s
}

// Location returns the point this service predicts for.
func (s *Service) Location() Location { return s.location }

// Today returns the current calendar date at the configured location.
func (s *Service) Today() time.Time {
	now := s.clock.Now()
	if tz, err := time.LoadLocation(s.location.Timezone); err == nil && s.location.Timezone != "" {
		now = now.In(tz)
	}
	return common.Day(now)
}

// History returns the date-sorted observations for the lookback window ending
// at ref inclusive, served from the store when every day is cached.
func (s *Service) History(ctx context.Context, ref time.Time) (*features.Table, error) {
	to := common.Day(ref)
	from := to.AddDate(0, 0, -s.lookbackDays)
	variables := s.engine.Catalog().Names()

	if s.store != nil {
		if rows, err := s.store.GetDaily(s.location, from, to); err == nil {
			s.metrics.HistoryCache.WithLabelValues("hit").Inc()
			return s.toTable(rows), nil
		}
	}
	s.metrics.HistoryCache.WithLabelValues("miss").Inc()

	if s.provider == nil {
		return nil, fmt.Errorf("%w: no weather provider configured", ErrUpstream)
	}

	start := s.clock.Now()
	tbl, err := s.provider.FetchDaily(ctx, s.location, from, to, variables)
	s.metrics.UpstreamDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		s.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		s.logger.Error("history fetch failed",
			"provider", s.provider.Name(),
			"from", common.FormatDay(from),
			"to", common.FormatDay(to),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, s.provider.Name(), err)
	}
	s.metrics.UpstreamRequests.WithLabelValues("success").Inc()

	rows := recordRows(tbl)
	if s.store != nil {
		s.store.SaveDaily(s.location, rows)
	}
	return s.toTable(rows), nil
}

// recordRows converts tbl to rows that keep an entry, possibly NaN, for every
// column, so a variable returned with only null readings stays present.
func recordRows(tbl *features.Table) []features.Row {
	columns := tbl.Columns()
	rows := make([]features.Row, tbl.Len())
	for i, d := range tbl.Dates() {
		vals := make(map[string]float64, len(columns))
		for _, c := range columns {
			v, _ := tbl.Value(i, c)
			vals[c] = v
		}
		rows[i] = features.Row{Date: d, Values: vals}
	}
	return rows
}

// toTable rebuilds rows into a date-sorted table of the catalog variables the
// rows carry, so cached and fresh history report the same coverage.
func (s *Service) toTable(rows []features.Row) *features.Table {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r.Values {
			seen[k] = true
		}
	}
	var columns []string
	for _, name := range s.engine.Catalog().Names() {
		if seen[name] {
			columns = append(columns, name)
		}
	}
	tbl := features.TableFromRows(columns, rows)
	tbl.SortByDate()
	return tbl
}

// BuildFeatureRow computes rollups over the history window ending at ref and
// returns the most recent fully-populated row.
func (s *Service) BuildFeatureRow(ctx context.Context, ref time.Time) (FeatureRow, error) {
	tbl, err := s.History(ctx, ref)
	if err != nil {
		return FeatureRow{}, err
	}

	start := s.clock.Now()
	rollup, err := s.engine.Compute(tbl)
	if err != nil {
		return FeatureRow{}, fmt.Errorf("compute rollups: %w", err)
	}
	s.metrics.FeatureBuild.Observe(s.clock.Since(start).Seconds())

	skipped := rollup.Skipped()
	for _, v := range skipped {
		s.metrics.SkippedVariables.WithLabelValues(v).Inc()
	}
	if len(skipped) > 0 {
		s.logger.Warn("variables missing from upstream", "skipped", skipped)
	}

	if missing := intersect(s.required, skipped); len(missing) > 0 {
		return FeatureRow{}, fmt.Errorf("%w: [%s]", ErrMissingVariables, strings.Join(missing, ", "))
	}

	row, err := rollup.LatestComplete()
	if err != nil {
		return FeatureRow{}, err
	}

	s.logger.Debug("feature row built",
		"reference_date", common.FormatDay(ref),
		"row_date", common.FormatDay(row.Date),
		"rows", tbl.Len(),
		"features", len(row.Values),
	)

	return FeatureRow{
		ReferenceDate: common.Day(ref),
		Date:          row.Date,
		Values:        row.Values,
		Skipped:       skipped,
	}, nil
}

// PredictRain predicts whether it will rain seven days after ref.
func (s *Service) PredictRain(ctx context.Context, ref time.Time) (RainPrediction, error) {
	p, err := s.score(ctx, model.KindRain, ref)
	if err != nil {
		return RainPrediction{}, err
	}
	day := common.Day(ref)
	return RainPrediction{
		InputDate:   day,
		TargetDate:  day.AddDate(0, 0, rainHorizonDays),
		WillRain:    p >= rainThreshold,
		Probability: p,
	}, nil
}

// PredictPrecipitation predicts total precipitation over the three days after ref.
func (s *Service) PredictPrecipitation(ctx context.Context, ref time.Time) (PrecipitationPrediction, error) {
	mm, err := s.score(ctx, model.KindPrecipitation, ref)
	if err != nil {
		return PrecipitationPrediction{}, err
	}
	if mm < 0 {
		mm = 0
	}
	day := common.Day(ref)
	return PrecipitationPrediction{
		InputDate:       day,
		StartDate:       day.AddDate(0, 0, precipStartDays),
		EndDate:         day.AddDate(0, 0, precipEndDays),
		PrecipitationMM: math.Round(mm*100) / 100,
	}, nil
}

func (s *Service) score(ctx context.Context, kind model.Kind, ref time.Time) (float64, error) {
	v, err := s.scoreOnce(ctx, kind, ref)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.Predictions.WithLabelValues(string(kind), outcome).Inc()
	return v, err
}

func (s *Service) scoreOnce(ctx context.Context, kind model.Kind, ref time.Time) (float64, error) {
	row, err := s.BuildFeatureRow(ctx, ref)
	if err != nil {
		return 0, err
	}

	m, err := s.models.Get(ctx, kind)
	if err != nil {
		return 0, err
	}

	x, filled := model.Align(row.Values, m.FeatureNames())
	if len(filled) > 0 {
		s.metrics.ZeroFilled.WithLabelValues(string(kind)).Add(float64(len(filled)))
		s.logger.Warn("model features absent from feature row; filled with zero",
			"kind", string(kind),
			"count", len(filled),
			"features", filled,
		)
	}

	v, err := m.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPrediction, err)
	}
	if m.IsClassifier() {
		v = math.Min(math.Max(v, 0), 1)
	}
	return v, nil
}

// Warm fetches the history window ending today so the first request of the
// day is served from cache.
func (s *Service) Warm(ctx context.Context) error {
	today := s.Today()
	tbl, err := s.History(ctx, today)
	if err != nil {
		return err
	}
	s.logger.Info("history cache warmed", "reference_date", common.FormatDay(today), "rows", tbl.Len())
	return nil
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
