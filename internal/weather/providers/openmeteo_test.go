package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/weather"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

var (
	sydney = weather.Location{Name: "Sydney", Lat: -33.8678, Lon: 151.2073, Timezone: "Australia/Sydney"}
	from   = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to     = time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
)

func fastBackoff() BackoffConfig {
	return BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func testArchive(url string) *OpenMeteoArchive {
	return newOpenMeteoArchive(&http.Client{Timeout: 5 * time.Second}, url, fastBackoff())
}

func TestOpenMeteoArchive_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "-33.8678", q.Get("latitude"))
		assert.Equal(t, "151.2073", q.Get("longitude"))
		assert.Equal(t, "2024-02-01", q.Get("start_date"))
		assert.Equal(t, "2024-02-03", q.Get("end_date"))
		assert.Equal(t, "rain_sum,temperature_2m_max,et0_fao_evapotranspiration", q.Get("daily"))
		assert.Equal(t, "Australia/Sydney", q.Get("timezone"))

		w.Header().Set(headerContentType, contentTypeJSON)
		// Dates deliberately out of order; et0 omitted by upstream.
		_, _ = w.Write([]byte(`{
			"latitude": -33.875, "longitude": 151.25,
			"daily": {
				"time": ["2024-02-02", "2024-02-01", "2024-02-03"],
				"rain_sum": [1.5, 0.0, null],
				"temperature_2m_max": [24.1, 26.3, 22.0]
			}
		}`))
	}))
	defer srv.Close()

	tbl, err := testArchive(srv.URL).FetchDaily(context.Background(), sydney, from, to,
		[]string{"rain_sum", "temperature_2m_max", "et0_fao_evapotranspiration"})
	require.NoError(t, err)

	require.NoError(t, tbl.Validate())
	assert.Equal(t, []string{"rain_sum", "temperature_2m_max"}, tbl.Columns())
	assert.Equal(t, []time.Time{from, from.AddDate(0, 0, 1), to}, tbl.Dates())

	rain, _ := tbl.Column("rain_sum")
	assert.Equal(t, 0.0, rain[0])
	assert.Equal(t, 1.5, rain[1])
	assert.True(t, features.IsMissing(rain[2]))
}

func TestOpenMeteoArchive_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily":{"time":["2024-02-01"],"rain_sum":[2.0]}}`))
	}))
	defer srv.Close()

	tbl, err := testArchive(srv.URL).FetchDaily(context.Background(), sydney, from, from, []string{"rain_sum"})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenMeteoArchive_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Parameter 'start_date' is out of allowed range"}`))
	}))
	defer srv.Close()

	_, err := testArchive(srv.URL).FetchDaily(context.Background(), sydney, from, to, []string{"rain_sum"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUnexpected))
	assert.Contains(t, err.Error(), "out of allowed range")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenMeteoArchive_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"no daily", `{"latitude": 1}`},
		{"no time", `{"daily": {"rain_sum": [1]}}`},
		{"bad date", `{"daily": {"time": ["01/02/2024"], "rain_sum": [1]}}`},
		{"length mismatch", `{"daily": {"time": ["2024-02-01", "2024-02-02"], "rain_sum": [1]}}`},
		{"non-numeric", `{"daily": {"time": ["2024-02-01"], "rain_sum": ["wet"]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set(headerContentType, contentTypeJSON)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testArchive(srv.URL).FetchDaily(context.Background(), sydney, from, to, []string{"rain_sum"})
			assert.ErrorIs(t, err, ErrUnexpectedSchema)
		})
	}
}

func TestOpenMeteoArchive_InvalidArguments(t *testing.T) {
	a := testArchive("http://127.0.0.1:1")

	_, err := a.FetchDaily(context.Background(), sydney, to, from, []string{"rain_sum"})
	assert.Error(t, err)

	_, err = a.FetchDaily(context.Background(), sydney, from, to, nil)
	assert.Error(t, err)
}

func TestOpenMeteoArchive_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testArchive(srv.URL).FetchDaily(ctx, sydney, from, to, []string{"rain_sum"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewOpenMeteoArchive_DefaultURL(t *testing.T) {
	a := NewOpenMeteoArchive(http.DefaultClient, "")
	assert.Equal(t, DefaultArchiveURL, a.baseURL)
	assert.Equal(t, "openmeteo-archive", a.Name())
}
