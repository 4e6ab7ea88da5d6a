package domain

import (
	"fmt"
	"time"
)

// AccurateThreshold is the minimum accuracy percentage of a trustworthy forecast
const AccurateThreshold = 85.0

// ForecastDataPoint is the predicted volume of one category at one instant
type ForecastDataPoint struct {
	Timestamp          time.Time        `json:"timestamp" bson:"timestamp"`
	Category           WorkloadCategory `json:"category" bson:"category"`
	ForecastedVolume   int              `json:"forecastedVolume" bson:"forecastedVolume"`
	ConfidenceInterval float64          `json:"confidenceInterval" bson:"confidenceInterval"`
}

// DemandForecast is the aggregate root holding predicted demand for a warehouse
type DemandForecast struct {
	ForecastID        string              `json:"forecastId" bson:"_id"`
	WarehouseID       string              `json:"warehouseId" bson:"warehouseId"`
	Period            ForecastPeriod      `json:"period" bson:"period"`
	ForecastDate      time.Time           `json:"forecastDate" bson:"forecastDate"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
	DataPoints        []ForecastDataPoint `json:"dataPoints" bson:"dataPoints"`
	Accuracy          *float64            `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	MeanAbsoluteError *float64            `json:"meanAbsoluteError,omitempty" bson:"meanAbsoluteError,omitempty"`
	MeanSquaredError  *float64            `json:"meanSquaredError,omitempty" bson:"meanSquaredError,omitempty"`
	ForecastingModel  string              `json:"forecastingModel,omitempty" bson:"forecastingModel,omitempty"`
	ModelParameters   map[string]float64  `json:"modelParameters,omitempty" bson:"modelParameters,omitempty"`
}

// NewDemandForecast creates an empty forecast with no model and no accuracy metrics
func NewDemandForecast(forecastID, warehouseID string, period ForecastPeriod, forecastDate time.Time) (*DemandForecast, error) {
	if forecastID == "" {
		return nil, fmt.Errorf("%w: forecastId", ErrMissingIdentifier)
	}
	if warehouseID == "" {
		return nil, fmt.Errorf("%w: warehouseId", ErrMissingIdentifier)
	}
	if !period.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if forecastDate.IsZero() {
		return nil, ErrMissingForecastDate
	}

	return &DemandForecast{
		ForecastID:      forecastID,
		WarehouseID:     warehouseID,
		Period:          period,
		ForecastDate:    normalizeTimestamp(forecastDate),
		CreatedAt:       time.Now().UTC(),
		DataPoints:      make([]ForecastDataPoint, 0),
		ModelParameters: make(map[string]float64),
	}, nil
}

// AddDataPoint appends a prediction. Duplicate (timestamp, category) pairs are allowed.
func (f *DemandForecast) AddDataPoint(timestamp time.Time, category WorkloadCategory, forecastedVolume int, confidenceInterval float64) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if forecastedVolume < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeVolume, forecastedVolume)
	}
	if confidenceInterval < 0 {
		return fmt.Errorf("%w: %f", ErrNegativeConfidence, confidenceInterval)
	}

	f.DataPoints = append(f.DataPoints, ForecastDataPoint{
		Timestamp:          normalizeTimestamp(timestamp),
		Category:           category,
		ForecastedVolume:   forecastedVolume,
		ConfidenceInterval: confidenceInterval,
	})
	return nil
}

// SetForecastingModel replaces the model name and parameters wholesale
func (f *DemandForecast) SetForecastingModel(model string, parameters map[string]float64) {
	f.ForecastingModel = model
	f.ModelParameters = make(map[string]float64, len(parameters))
	for k, v := range parameters {
		f.ModelParameters[k] = v
	}
}

// UpdateAccuracyMetrics replaces accuracy, MAE and MSE together
func (f *DemandForecast) UpdateAccuracyMetrics(accuracy, mae, mse float64) {
	f.Accuracy = &accuracy
	f.MeanAbsoluteError = &mae
	f.MeanSquaredError = &mse
}

// ForecastedVolume returns the volume of the first point exactly at timestamp, or 0
func (f *DemandForecast) ForecastedVolume(timestamp time.Time, category WorkloadCategory) int {
	ts := normalizeTimestamp(timestamp)
	for _, dp := range f.DataPoints {
		if dp.Category == category && dp.Timestamp.Equal(ts) {
			return dp.ForecastedVolume
		}
	}
	return 0
}

// TotalForecastedVolume sums every point of category
func (f *DemandForecast) TotalForecastedVolume(category WorkloadCategory) int {
	total := 0
	for _, dp := range f.DataPoints {
		if dp.Category == category {
			total += dp.ForecastedVolume
		}
	}
	return total
}

// PeakDemandTime returns the timestamp of the highest-volume point of category.
// Ties go to the earliest point in insertion order; ok is false when the category has no points.
func (f *DemandForecast) PeakDemandTime(category WorkloadCategory) (peak time.Time, ok bool) {
	best := -1
	for _, dp := range f.DataPoints {
		if dp.Category != category {
			continue
		}
		if dp.ForecastedVolume > best {
			best = dp.ForecastedVolume
			peak = dp.Timestamp
			ok = true
		}
	}
	return peak, ok
}

// IsAccurate reports whether accuracy is known and at least AccurateThreshold
func (f *DemandForecast) IsAccurate() bool {
	return f.Accuracy != nil && *f.Accuracy >= AccurateThreshold
}

// NeedsRefresh reports whether the forecast is older than its period's refresh threshold
func (f *DemandForecast) NeedsRefresh() bool {
	return f.needsRefreshAt(time.Now())
}

func (f *DemandForecast) needsRefreshAt(now time.Time) bool {
	if f.CreatedAt.IsZero() {
		return true
	}
	return now.Sub(f.CreatedAt) >= f.Period.RefreshThreshold()
}

// Categories returns the distinct categories present, in enumeration order
func (f *DemandForecast) Categories() []WorkloadCategory {
	seen := make(map[WorkloadCategory]bool)
	for _, dp := range f.DataPoints {
		seen[dp.Category] = true
	}

	out := make([]WorkloadCategory, 0, len(seen))
	for _, c := range workloadCategories {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

func (f *DemandForecast) String() string {
	accuracy := "n/a"
	if f.Accuracy != nil {
		accuracy = fmt.Sprintf("%.1f", *f.Accuracy)
	}
	return fmt.Sprintf("DemandForecast[id=%s, warehouse=%s, period=%s, dataPoints=%d, accuracy=%s%%]",
		f.ForecastID, f.WarehouseID, f.Period, len(f.DataPoints), accuracy)
}

// normalizeTimestamp drops sub-millisecond precision so timestamps survive a BSON round trip.
func normalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
