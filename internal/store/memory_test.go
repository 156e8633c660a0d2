package store

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/weather"
)

var (
	sydney = weather.Location{Name: "Sydney", Lat: -33.8678, Lon: 151.2073}
	day0   = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
)

func rows(n int) []features.Row {
	out := make([]features.Row, n)
	for i := range out {
		out[i] = features.Row{
			Date:   day0.AddDate(0, 0, i),
			Values: map[string]float64{"rain_sum": float64(i)},
		}
	}
	return out
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	clock := clockwork.NewFakeClockAt(day0)
	s := NewMemoryStore(time.Hour, clock)

	// Saved out of order; returned sorted.
	in := rows(5)
	s.SaveDaily(sydney, []features.Row{in[3], in[1], in[0], in[4], in[2]})

	got, err := s.GetDaily(sydney, day0, day0.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Equal(t, 5, s.Len(sydney))

	got, err = s.GetDaily(sydney, day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, in[1:3], got)
}

func TestMemoryStore_PartialRangeIsMiss(t *testing.T) {
	s := NewMemoryStore(0, nil)
	s.SaveDaily(sydney, rows(3))

	_, err := s.GetDaily(sydney, day0, day0.AddDate(0, 0, 3))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetDaily(weather.Location{Lat: 1, Lon: 1}, day0, day0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetDaily(sydney, day0.AddDate(0, 0, 2), day0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(day0)
	s := NewMemoryStore(time.Hour, clock)
	s.SaveDaily(sydney, rows(2))

	clock.Advance(2 * time.Hour)
	_, err := s.GetDaily(sydney, day0, day0.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrNotFound)

	// Saving again refreshes and evicts the stale day not re-saved.
	s.SaveDaily(sydney, rows(1))
	assert.Equal(t, 1, s.Len(sydney))
	_, err = s.GetDaily(sydney, day0, day0)
	assert.NoError(t, err)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore(0, nil)
	in := rows(1)
	s.SaveDaily(sydney, in)
	in[0].Values["rain_sum"] = 99

	got, err := s.GetDaily(sydney, day0, day0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0].Values["rain_sum"])

	got[0].Values["rain_sum"] = 42
	again, err := s.GetDaily(sydney, day0, day0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, again[0].Values["rain_sum"])
}
