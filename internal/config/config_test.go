package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-prediction/internal/features"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "Sydney", cfg.Location.Name)
	assert.Equal(t, -33.8678, cfg.Location.Lat)
	assert.Equal(t, 151.2073, cfg.Location.Lon)
	assert.Equal(t, "Australia/Sydney", cfg.Location.Timezone)
	assert.Equal(t, "https://archive-api.open-meteo.com/v1/era5", cfg.ArchiveBaseURL)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 60, cfg.LookbackDays)
	assert.Equal(t, []int{3, 7, 14, 30}, cfg.Windows)
	assert.Equal(t, features.BaseVariables(), cfg.RequiredVariables)
	assert.Equal(t, filepath.Join("models", "rain_or_not", "rf_clf.yaml"), cfg.RainModelPath)
	assert.Equal(t, filepath.Join("models", "precipitation_fall", "rf_reg.yaml"), cfg.PrecipModelPath)
	assert.Equal(t, 6*time.Hour, cfg.CacheRefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOCATION_NAME", "Perth")
	t.Setenv("LOCATION_LAT", "-31.95")
	t.Setenv("LOCATION_LON", "115.86")
	t.Setenv("LOCATION_TIMEZONE", "Australia/Perth")
	t.Setenv("HISTORY_LOOKBACK_DAYS", "90")
	t.Setenv("ROLLUP_WINDOWS", "7, 14")
	t.Setenv("REQUIRED_VARIABLES", "rain_sum,temperature_2m_max")
	t.Setenv("MODELS_DIR", "/srv/models")
	t.Setenv("PRECIP_MODEL_PATH", "/tmp/reg.json")
	t.Setenv("CACHE_REFRESH_INTERVAL", "30m")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "Perth", cfg.Location.Name)
	assert.Equal(t, -31.95, cfg.Location.Lat)
	assert.Equal(t, "Australia/Perth", cfg.Location.Timezone)
	assert.Equal(t, 90, cfg.LookbackDays)
	assert.Equal(t, []int{7, 14}, cfg.Windows)
	assert.Equal(t, []string{"rain_sum", "temperature_2m_max"}, cfg.RequiredVariables)
	assert.Equal(t, filepath.Join("/srv/models", "rain_or_not", "rf_clf.yaml"), cfg.RainModelPath)
	assert.Equal(t, "/tmp/reg.json", cfg.PrecipModelPath)
	assert.Equal(t, 30*time.Minute, cfg.CacheRefreshInterval)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad latitude", "LOCATION_LAT", "north"},
		{"latitude out of range", "LOCATION_LAT", "95"},
		{"bad timezone", "LOCATION_TIMEZONE", "Mars/Olympus"},
		{"bad timeout", "HTTP_TIMEOUT", "soon"},
		{"negative refresh", "CACHE_REFRESH_INTERVAL", "-1h"},
		{"zero lookback", "HISTORY_LOOKBACK_DAYS", "0"},
		{"bad lookback", "HISTORY_LOOKBACK_DAYS", "sixty"},
		{"bad window", "ROLLUP_WINDOWS", "3,seven"},
		{"empty windows", "ROLLUP_WINDOWS", " , "},
		{"unknown variable", "REQUIRED_VARIABLES", "humidity_mean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
