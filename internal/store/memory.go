package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-prediction/internal/common"
	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/weather"
)

var (
	// ErrNotFound is returned when the requested range is not fully cached.
	ErrNotFound = errors.New("no cached weather history for range")
)

type entry struct {
	row       features.Row
	fetchedAt time.Time
}

// dailyHistory holds cached observations for one location keyed by day.
type dailyHistory struct {
	Days map[time.Time]entry
}

// MemoryStore is a concurrency-safe in-memory cache of daily observations.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]*dailyHistory

	// maxAge bounds how long a fetched day is served (0 = forever).
	maxAge time.Duration
	clock  clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore. A nil clock uses real time.
func NewMemoryStore(maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:   make(map[string]*dailyHistory),
		maxAge: maxAge,
		clock:  clock,
	}
}

// SaveDaily upserts rows for a location and drops expired days.
func (s *MemoryStore) SaveDaily(loc weather.Location, rows []features.Row) {
	key := loc.Key()
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &dailyHistory{Days: make(map[time.Time]entry)}
		s.data[key] = history
	}

	for _, r := range rows {
		day := common.Day(r.Date)
		history.Days[day] = entry{row: copyRow(day, r.Values), fetchedAt: now}
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		for day, e := range history.Days {
			if s.expired(e, now) {
				delete(history.Days, day)
			}
		}
	}
}

// GetDaily returns the rows for every day from 'from' to 'to' inclusive,
// sorted by date. It fails with ErrNotFound unless every day is cached and fresh.
func (s *MemoryStore) GetDaily(loc weather.Location, from, to time.Time) ([]features.Row, error) {
	key := loc.Key()
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Days) == 0 {
		return nil, ErrNotFound
	}

	days := common.DaysBetween(from, to)
	if len(days) == 0 {
		return nil, ErrNotFound
	}

	result := make([]features.Row, 0, len(days))
	for _, day := range days {
		e, ok := history.Days[day]
		if !ok || s.expired(e, now) {
			return nil, ErrNotFound
		}
		result = append(result, copyRow(e.row.Date, e.row.Values))
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Len returns the number of cached days for a location.
func (s *MemoryStore) Len(loc weather.Location) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h, ok := s.data[loc.Key()]; ok {
		return len(h.Days)
	}
	return 0
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return s.maxAge > 0 && now.Sub(e.fetchedAt) > s.maxAge
}

func copyRow(day time.Time, values map[string]float64) features.Row {
	vals := make(map[string]float64, len(values))
	for k, v := range values {
		vals[k] = v
	}
	return features.Row{Date: day, Values: vals}
}
