package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()

	assert.Equal(t, 11, cat.Len())
	assert.Equal(t, []string{
		"temperature_2m_max", "temperature_2m_min",
		"precipitation_sum", "rain_sum", "showers_sum",
		"snowfall_sum", "precipitation_hours",
		"wind_speed_10m_max", "wind_gusts_10m_max",
		"shortwave_radiation_sum", "et0_fao_evapotranspiration",
	}, cat.Names())

	tests := []struct {
		name     string
		category Category
	}{
		{"temperature_2m_min", CategoryTemperature},
		{"showers_sum", CategoryPrecipitation},
		{"precipitation_hours", CategoryHours},
		{"wind_gusts_10m_max", CategoryWind},
		{"shortwave_radiation_sum", CategoryRadiation},
		{"et0_fao_evapotranspiration", CategoryEvapotranspiration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := cat.Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.category, e.Category)
		})
	}

	_, ok := cat.Lookup("weather_code")
	assert.False(t, ok)
}

func TestBaseVariablesInCatalog(t *testing.T) {
	cat := DefaultCatalog()
	for _, name := range BaseVariables() {
		_, ok := cat.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestCatalog_EntriesIsCopy(t *testing.T) {
	cat := DefaultCatalog()
	entries := cat.Entries()
	entries[0].Name = "mutated"

	assert.Equal(t, "temperature_2m_max", cat.Names()[0])
}

func TestCategory_Statistics(t *testing.T) {
	assert.Equal(t, []Statistic{StatMean, StatMax, StatMin}, CategoryTemperature.Statistics())
	assert.Equal(t, []Statistic{StatMean, StatMax}, CategoryWind.Statistics())
	assert.Equal(t, []Statistic{StatMean, StatSum}, CategoryPrecipitation.Statistics())
	assert.Equal(t, []Statistic{StatMean}, CategoryRadiation.Statistics())
	assert.Empty(t, Category("humidity").Statistics())
	assert.False(t, Category("humidity").Valid())
}

func TestNewCatalog_Errors(t *testing.T) {
	_, err := NewCatalog(Entry{Name: "", Category: CategoryWind})
	assert.ErrorIs(t, err, ErrEmptyVariable)

	_, err = NewCatalog(Entry{Name: "humidity_mean", Category: "humidity"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = NewCatalog(
		Entry{Name: "rain_sum", Category: CategoryPrecipitation},
		Entry{Name: "rain_sum", Category: CategoryPrecipitation},
	)
	assert.ErrorIs(t, err, ErrDuplicateVariable)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "temperature_2m_max_max_7d", ColumnName("temperature_2m_max", StatMax, 7))
	assert.Equal(t, "rain_sum_sum_30d", ColumnName("rain_sum", StatSum, 30))
}
