package weather

import (
	"fmt"
	"time"
)

// Location is the fixed geographic point predictions are made for.
type Location struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Timezone string  `json:"timezone"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// FeatureRow is the single feature vector used to score a prediction.
type FeatureRow struct {
	// ReferenceDate is the requested prediction date.
	ReferenceDate time.Time
	// Date is the date of the most recent fully-populated row, which can be
	// earlier than ReferenceDate when the archive lags.
	Date   time.Time
	Values map[string]float64
	// Skipped lists catalog variables the upstream did not supply.
	Skipped []string
}

// RainPrediction answers whether it will rain seven days after InputDate.
type RainPrediction struct {
	InputDate   time.Time
	TargetDate  time.Time
	WillRain    bool
	Probability float64
}

// PrecipitationPrediction is the total precipitation expected over the three
// days following InputDate.
type PrecipitationPrediction struct {
	InputDate       time.Time
	StartDate       time.Time
	EndDate         time.Time
	PrecipitationMM float64
}
