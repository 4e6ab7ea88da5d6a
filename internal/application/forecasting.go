package application

import (
	"math"
	"time"

	"github.com/paklog/workload-planning-service/internal/domain"
)

const (
	movingAverageWindow = 7
	confidenceZScore    = 1.96

	// Every generated forecast is stamped with the same evaluation triple until
	// actuals are fed back from the labor service.
	simulatedAccuracy = 90.0
	simulatedMAE      = 5.0
	simulatedMSE      = 25.0
)

var modelParameters = map[string]float64{
	"alpha":       0.3,
	"window_size": movingAverageWindow,
	"seasonality": 7,
}

// ForecastGenerator turns historical volumes into a DemandForecast.
// The numeric method is a moving average for every period; the per-period
// model name is recorded as metadata only.
type ForecastGenerator struct {
	newID func() string
}

// NewForecastGenerator creates a generator that names forecasts with newID
func NewForecastGenerator(newID func() string) *ForecastGenerator {
	return &ForecastGenerator{newID: newID}
}

// Generate builds a forecast for warehouseID. Categories are processed in
// enumeration order so data points are deterministic for a given input.
func (g *ForecastGenerator) Generate(
	warehouseID string,
	period domain.ForecastPeriod,
	forecastDate time.Time,
	history map[domain.WorkloadCategory][]int,
) (*domain.DemandForecast, error) {
	forecast, err := domain.NewDemandForecast(g.newID(), warehouseID, period, forecastDate)
	if err != nil {
		return nil, err
	}

	forecast.SetForecastingModel(period.ModelName(), modelParameters)

	step := time.Duration(period.HoursPerPeriod()) * time.Hour
	for _, category := range domain.WorkloadCategories() {
		observations, ok := history[category]
		if !ok {
			continue
		}

		volume := MovingAverage(observations, movingAverageWindow)
		interval := ConfidenceInterval(observations)

		for i := 0; i < period.PeriodsAhead(); i++ {
			ts := forecastDate.Add(time.Duration(i) * step)
			if err := forecast.AddDataPoint(ts, category, volume, interval); err != nil {
				return nil, err
			}
		}
	}

	forecast.UpdateAccuracyMetrics(simulatedAccuracy, simulatedMAE, simulatedMSE)
	return forecast, nil
}

// MovingAverage returns the truncated integer mean of the last min(window, len(data))
// observations, or 0 for an empty series.
func MovingAverage(data []int, window int) int {
	if len(data) == 0 || window <= 0 {
		return 0
	}

	start := len(data) - window
	if start < 0 {
		start = 0
	}

	sum := 0
	for _, v := range data[start:] {
		sum += v
	}
	return int(float64(sum) / float64(len(data)-start))
}

// ConfidenceInterval returns 1.96 times the population standard deviation of data,
// or 0 when fewer than two observations exist.
func ConfidenceInterval(data []int) float64 {
	if len(data) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range data {
		mean += float64(v)
	}
	mean /= float64(len(data))

	variance := 0.0
	for _, v := range data {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(data))

	return math.Sqrt(variance) * confidenceZScore
}
