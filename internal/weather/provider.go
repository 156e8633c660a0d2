package weather

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/model"
)

var (
	// ErrUpstream marks failures of the weather-data source.
	ErrUpstream = errors.New("upstream weather source error")
	// ErrMissingVariables is returned when the upstream omitted variables the
	// models cannot be scored without.
	ErrMissingVariables = errors.New("missing required variables from upstream")
	// ErrInsufficientHistory is returned when no fully-populated feature row exists.
	ErrInsufficientHistory = features.ErrInsufficientHistory
	// ErrPrediction wraps model scoring failures.
	ErrPrediction = errors.New("prediction failed")
)

// HistoryProvider abstracts a source of daily observations (e.g. the Open-Meteo archive).
type HistoryProvider interface {
	Name() string
	// FetchDaily returns observations for the inclusive date range, one column
	// per variable the source returned.
	FetchDaily(ctx context.Context, loc Location, from, to time.Time, variables []string) (*features.Table, error)
}

// Store is the contract the in-memory history cache must satisfy.
type Store interface {
	SaveDaily(loc Location, rows []features.Row)
	GetDaily(loc Location, from, to time.Time) ([]features.Row, error)
}

// ModelStore supplies the model artifact for each prediction kind.
type ModelStore interface {
	Get(ctx context.Context, kind model.Kind) (*model.Model, error)
}
