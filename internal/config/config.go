package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-prediction/internal/features"
	"github.com/i474232898/weather-prediction/internal/weather"
)

type AppConfig struct {
	Port string

	// Location is the fixed point predictions are made for.
	Location weather.Location

	ArchiveBaseURL string
	HTTPTimeout    time.Duration

	// LookbackDays is how many days of history precede the reference date.
	LookbackDays int
	Windows      []int

	// RequiredVariables must all be present upstream before scoring.
	RequiredVariables []string

	RainModelPath   string
	PrecipModelPath string

	// CacheRefreshInterval controls how often the history cache is warmed.
	CacheRefreshInterval time.Duration
	StoreMaxAge          time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment with sensible defaults.
// Callers load any .env file beforehand.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:           getenvDefault("PORT", "8080"),
		ArchiveBaseURL: getenvDefault("ARCHIVE_BASE_URL", "https://archive-api.open-meteo.com/v1/era5"),
		LogLevel:       getenvDefault("LOG_LEVEL", "info"),
		LogFormat:      getenvDefault("LOG_FORMAT", "json"),
	}

	loc, err := loadLocation()
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.CacheRefreshInterval, err = getenvDuration("CACHE_REFRESH_INTERVAL", "6h"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	if cfg.LookbackDays, err = getenvInt("HISTORY_LOOKBACK_DAYS", 60); err != nil {
		return nil, err
	}
	if cfg.LookbackDays < 1 {
		return nil, fmt.Errorf("invalid HISTORY_LOOKBACK_DAYS: %d", cfg.LookbackDays)
	}

	if cfg.Windows, err = parseWindows(getenvDefault("ROLLUP_WINDOWS", "3,7,14,30")); err != nil {
		return nil, err
	}

	cfg.RequiredVariables = features.BaseVariables()
	if v := os.Getenv("REQUIRED_VARIABLES"); v != "" {
		cfg.RequiredVariables = splitList(v)
	}
	catalog := features.DefaultCatalog()
	for _, name := range cfg.RequiredVariables {
		if _, ok := catalog.Lookup(name); !ok {
			return nil, fmt.Errorf("invalid REQUIRED_VARIABLES: %q is not a catalog variable", name)
		}
	}

	modelsDir := getenvDefault("MODELS_DIR", "models")
	cfg.RainModelPath = getenvDefault("RAIN_MODEL_PATH", filepath.Join(modelsDir, "rain_or_not", "rf_clf.yaml"))
	cfg.PrecipModelPath = getenvDefault("PRECIP_MODEL_PATH", filepath.Join(modelsDir, "precipitation_fall", "rf_reg.yaml"))

	return cfg, nil
}

func loadLocation() (weather.Location, error) {
	lat, err := getenvFloat("LOCATION_LAT", -33.8678)
	if err != nil {
		return weather.Location{}, err
	}
	lon, err := getenvFloat("LOCATION_LON", 151.2073)
	if err != nil {
		return weather.Location{}, err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return weather.Location{}, fmt.Errorf("location out of range: lat=%f lon=%f", lat, lon)
	}

	tz := getenvDefault("LOCATION_TIMEZONE", "Australia/Sydney")
	if _, err := time.LoadLocation(tz); err != nil {
		return weather.Location{}, fmt.Errorf("invalid LOCATION_TIMEZONE: %w", err)
	}

	return weather.Location{
		Name:     getenvDefault("LOCATION_NAME", "Sydney"),
		Lat:      lat,
		Lon:      lon,
		Timezone: tz,
	}, nil
}

func parseWindows(s string) ([]int, error) {
	var windows []int
	for _, part := range splitList(s) {
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid ROLLUP_WINDOWS: %w", err)
		}
		windows = append(windows, w)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("invalid ROLLUP_WINDOWS: no window lengths")
	}
	// Range and duplicate checks are left to features.NewEngine.
	return windows, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
