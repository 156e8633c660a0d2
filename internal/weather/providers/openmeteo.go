package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-prediction/internal/common"
	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/weather"
)

// DefaultArchiveURL is the Open-Meteo ERA5 reanalysis endpoint.
const DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/era5"

var ErrUnexpectedSchema = errors.New("unexpected response schema from open-meteo")

// OpenMeteoArchive implements weather.HistoryProvider for the Open-Meteo
// historical archive. No API key is required.
type OpenMeteoArchive struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoArchive creates an archive client. An empty baseURL uses
// DefaultArchiveURL.
func NewOpenMeteoArchive(client *http.Client, baseURL string) *OpenMeteoArchive {
	return newOpenMeteoArchive(client, baseURL, DefaultBackoff())
}

func newOpenMeteoArchive(client *http.Client, baseURL string, backoff BackoffConfig) *OpenMeteoArchive {
	if baseURL == "" {
		baseURL = DefaultArchiveURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo-archive",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoArchive{
		name:    "openmeteo-archive",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: cb,
	}
}

func (p *OpenMeteoArchive) Name() string {
	return p.name
}

// FetchDaily requests the daily variables for [from, to] and returns them as a
// date-sorted table. Variables missing from the response are left out of the
// table; null readings are recorded as missing.
func (p *OpenMeteoArchive) FetchDaily(
	ctx context.Context,
	loc weather.Location,
	from, to time.Time,
	variables []string,
) (*features.Table, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s", common.FormatDay(to), common.FormatDay(from))
	}
	if len(variables) == 0 {
		return nil, fmt.Errorf("no daily variables requested")
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		values.Set("start_date", common.FormatDay(from))
		values.Set("end_date", common.FormatDay(to))
		values.Set("daily", strings.Join(variables, ","))
		if loc.Timezone != "" {
			values.Set("timezone", loc.Timezone)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily map[string]json.RawMessage `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedSchema, err)
	}

	return parseDaily(payload.Daily, variables)
}

func parseDaily(daily map[string]json.RawMessage, variables []string) (*features.Table, error) {
	rawTime, ok := daily["time"]
	if !ok {
		return nil, fmt.Errorf("%w: missing daily.time", ErrUnexpectedSchema)
	}
	var stamps []string
	if err := json.Unmarshal(rawTime, &stamps); err != nil {
		return nil, fmt.Errorf("%w: daily.time: %v", ErrUnexpectedSchema, err)
	}
	dates := make([]time.Time, len(stamps))
	for i, s := range stamps {
		d, err := common.ParseDay(s)
		if err != nil {
			return nil, fmt.Errorf("%w: daily.time[%d] = %q", ErrUnexpectedSchema, i, s)
		}
		dates[i] = d
	}

	var columns []string
	series := make(map[string][]*float64, len(variables))
	for _, v := range variables {
		raw, ok := daily[v]
		if !ok {
			continue
		}
		var vals []*float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return nil, fmt.Errorf("%w: daily.%s: %v", ErrUnexpectedSchema, v, err)
		}
		if len(vals) != len(dates) {
			return nil, fmt.Errorf("%w: daily.%s has %d values for %d dates",
				ErrUnexpectedSchema, v, len(vals), len(dates))
		}
		columns = append(columns, v)
		series[v] = vals
	}

	tbl := features.NewTable(columns)
	for i, d := range dates {
		row := make(map[string]float64, len(columns))
		for _, c := range columns {
			if p := series[c][i]; p != nil {
				row[c] = *p
			} else {
				row[c] = math.NaN()
			}
		}
		tbl.Append(d, row)
	}
	tbl.SortByDate()
	return tbl, nil
}
