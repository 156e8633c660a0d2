package features

import (
	"errors"
	"fmt"
)

// Category classifies a daily variable and decides which rolling statistics
// are derived for it.
type Category string

const (
	CategoryTemperature        Category = "temperature"
	CategoryWind               Category = "wind"
	CategoryPrecipitation      Category = "precipitation"
	CategoryRadiation          Category = "radiation"
	CategoryEvapotranspiration Category = "evapotranspiration"
	CategoryHours              Category = "hours"
)

// Statistic is the aggregate token used in derived column names.
type Statistic string

const (
	StatMean Statistic = "mean"
	StatSum  Statistic = "sum"
	StatMax  Statistic = "max"
	StatMin  Statistic = "min"
)

// categoryStatistics is the dispatch table from category to derived statistics.
// Order within each slice is the order derived columns are emitted in.
var categoryStatistics = map[Category][]Statistic{
	CategoryTemperature:        {StatMean, StatMax, StatMin},
	CategoryWind:               {StatMean, StatMax},
	CategoryPrecipitation:      {StatMean, StatSum},
	CategoryRadiation:          {StatMean},
	CategoryEvapotranspiration: {StatMean},
	CategoryHours:              {StatMean},
}

// Statistics returns the statistics derived for the category.
func (c Category) Statistics() []Statistic {
	stats := categoryStatistics[c]
	out := make([]Statistic, len(stats))
	copy(out, stats)
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryStatistics[c]
	return ok
}

// Entry is one daily variable understood by the pipeline.
type Entry struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

var (
	ErrEmptyVariable     = errors.New("catalog entry has empty name")
	ErrDuplicateVariable = errors.New("duplicate catalog entry")
	ErrUnknownCategory   = errors.New("unknown category")
)

// Catalog is an ordered, immutable set of daily variables.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// NewCatalog builds a catalog from entries, preserving their order.
func NewCatalog(entries ...Entry) (Catalog, error) {
	c := Catalog{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			return Catalog{}, ErrEmptyVariable
		}
		if !e.Category.Valid() {
			return Catalog{}, fmt.Errorf("%w %q for %s", ErrUnknownCategory, e.Category, e.Name)
		}
		if _, dup := c.index[e.Name]; dup {
			return Catalog{}, fmt.Errorf("%w: %s", ErrDuplicateVariable, e.Name)
		}
		c.index[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// DefaultCatalog returns the 11 daily variables requested from the archive.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(
		Entry{"temperature_2m_max", CategoryTemperature},
		Entry{"temperature_2m_min", CategoryTemperature},
		Entry{"precipitation_sum", CategoryPrecipitation},
		Entry{"rain_sum", CategoryPrecipitation},
		Entry{"showers_sum", CategoryPrecipitation},
		Entry{"snowfall_sum", CategoryPrecipitation},
		Entry{"precipitation_hours", CategoryHours},
		Entry{"wind_speed_10m_max", CategoryWind},
		Entry{"wind_gusts_10m_max", CategoryWind},
		Entry{"shortwave_radiation_sum", CategoryRadiation},
		Entry{"et0_fao_evapotranspiration", CategoryEvapotranspiration},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// BaseVariables lists the variables the deployed models cannot be scored without.
func BaseVariables() []string {
	return []string{
		"precipitation_sum",
		"rain_sum",
		"precipitation_hours",
		"temperature_2m_max",
		"temperature_2m_min",
		"wind_speed_10m_max",
		"shortwave_radiation_sum",
	}
}

// Len returns the number of entries.
func (c Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the catalog entries in order.
func (c Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns the variable names in order.
func (c Catalog) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Name
	}
	return out
}

// Lookup returns the entry for name.
func (c Catalog) Lookup(name string) (Entry, bool) {
	i, ok := c.index[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}
