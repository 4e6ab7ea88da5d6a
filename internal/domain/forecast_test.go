package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestForecast(t *testing.T, period ForecastPeriod) *DemandForecast {
	t.Helper()
	f, err := NewDemandForecast("FC-001", "WH-1", period, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return f
}

func TestNewDemandForecast(t *testing.T) {
	f := newTestForecast(t, PeriodDaily)

	assert.Equal(t, "FC-001", f.ForecastID)
	assert.Equal(t, "WH-1", f.WarehouseID)
	assert.Equal(t, PeriodDaily, f.Period)
	assert.Empty(t, f.DataPoints)
	assert.Empty(t, f.ForecastingModel)
	assert.Nil(t, f.Accuracy)
	assert.NotZero(t, f.CreatedAt)

	tests := []struct {
		name        string
		forecastID  string
		warehouseID string
		period      ForecastPeriod
		date        time.Time
		want        error
	}{
		{"missing id", "", "WH-1", PeriodDaily, time.Now(), ErrMissingIdentifier},
		{"missing warehouse", "FC", "", PeriodDaily, time.Now(), ErrMissingIdentifier},
		{"bad period", "FC", "WH-1", ForecastPeriod("YEARLY"), time.Now(), ErrInvalidPeriod},
		{"missing date", "FC", "WH-1", PeriodDaily, time.Time{}, ErrMissingForecastDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDemandForecast(tt.forecastID, tt.warehouseID, tt.period, tt.date)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestForecastTotalVolume(t *testing.T) {
	f := newTestForecast(t, PeriodDaily)
	ts := f.ForecastDate

	require.NoError(t, f.AddDataPoint(ts, CategoryPicking, 120, 4))
	require.NoError(t, f.AddDataPoint(ts.Add(24*time.Hour), CategoryPicking, 180, 4))
	require.NoError(t, f.AddDataPoint(ts, CategoryReceiving, 90, 2))

	assert.Equal(t, 300, f.TotalForecastedVolume(CategoryPicking))
	assert.Equal(t, 90, f.TotalForecastedVolume(CategoryReceiving))
	assert.Equal(t, 0, f.TotalForecastedVolume(CategoryPacking))
	assert.Equal(t, []WorkloadCategory{CategoryReceiving, CategoryPicking}, f.Categories())
}

func TestForecastAddDataPointRejectsInvalidInput(t *testing.T) {
	f := newTestForecast(t, PeriodDaily)

	err := f.AddDataPoint(f.ForecastDate, CategoryPicking, -1, 0)
	assert.True(t, errors.Is(err, ErrNegativeVolume))

	err = f.AddDataPoint(f.ForecastDate, CategoryPicking, 10, -0.5)
	assert.True(t, errors.Is(err, ErrNegativeConfidence))

	err = f.AddDataPoint(f.ForecastDate, WorkloadCategory("SWEEPING"), 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidCategory))

	assert.Empty(t, f.DataPoints)
}

func TestForecastDuplicatePointsAreSummed(t *testing.T) {
	f := newTestForecast(t, PeriodHourly)
	ts := f.ForecastDate

	require.NoError(t, f.AddDataPoint(ts, CategoryPacking, 40, 0))
	require.NoError(t, f.AddDataPoint(ts, CategoryPacking, 60, 0))

	assert.Equal(t, 100, f.TotalForecastedVolume(CategoryPacking))
	assert.Equal(t, 40, f.ForecastedVolume(ts, CategoryPacking), "first exact match wins")
}

func TestForecastedVolumeExactMatch(t *testing.T) {
	f := newTestForecast(t, PeriodHourly)
	ts := f.ForecastDate
	require.NoError(t, f.AddDataPoint(ts, CategoryPicking, 75, 0))

	assert.Equal(t, 75, f.ForecastedVolume(ts, CategoryPicking))
	assert.Equal(t, 0, f.ForecastedVolume(ts.Add(time.Minute), CategoryPicking))
	assert.Equal(t, 0, f.ForecastedVolume(ts, CategoryPacking))
}

func TestForecastPeakDemandTime(t *testing.T) {
	f := newTestForecast(t, PeriodHourly)
	base := f.ForecastDate

	_, ok := f.PeakDemandTime(CategoryPicking)
	assert.False(t, ok)

	require.NoError(t, f.AddDataPoint(base, CategoryPicking, 50, 0))
	require.NoError(t, f.AddDataPoint(base.Add(time.Hour), CategoryPicking, 90, 0))
	require.NoError(t, f.AddDataPoint(base.Add(2*time.Hour), CategoryPicking, 90, 0))
	require.NoError(t, f.AddDataPoint(base.Add(3*time.Hour), CategoryPacking, 500, 0))

	peak, ok := f.PeakDemandTime(CategoryPicking)
	require.True(t, ok)
	assert.True(t, peak.Equal(base.Add(time.Hour)), "ties go to the first point encountered")
}

func TestForecastAccuracy(t *testing.T) {
	f := newTestForecast(t, PeriodDaily)
	assert.False(t, f.IsAccurate())

	f.UpdateAccuracyMetrics(85.0, 4, 16)
	assert.True(t, f.IsAccurate())
	assert.Equal(t, 4.0, *f.MeanAbsoluteError)
	assert.Equal(t, 16.0, *f.MeanSquaredError)

	f.UpdateAccuracyMetrics(84.9, 6, 36)
	assert.False(t, f.IsAccurate())
}

func TestForecastSetModelReplacesParameters(t *testing.T) {
	f := newTestForecast(t, PeriodDaily)
	f.SetForecastingModel("MOVING_AVERAGE", map[string]float64{"window_size": 7, "alpha": 0.3})
	f.SetForecastingModel("EXPONENTIAL_SMOOTHING", map[string]float64{"alpha": 0.5})

	assert.Equal(t, "EXPONENTIAL_SMOOTHING", f.ForecastingModel)
	assert.Equal(t, map[string]float64{"alpha": 0.5}, f.ModelParameters)

	f.SetForecastingModel("NONE", nil)
	assert.Empty(t, f.ModelParameters)
}

func TestForecastNeedsRefresh(t *testing.T) {
	hourly := newTestForecast(t, PeriodHourly)
	hourly.CreatedAt = time.Now().Add(-61 * time.Minute)
	assert.True(t, hourly.NeedsRefresh())

	hourly.CreatedAt = time.Now().Add(-30 * time.Minute)
	assert.False(t, hourly.NeedsRefresh())

	daily := newTestForecast(t, PeriodDaily)
	daily.CreatedAt = time.Now().Add(-3 * time.Hour)
	assert.False(t, daily.NeedsRefresh())

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	weekly := newTestForecast(t, PeriodWeekly)
	weekly.CreatedAt = created
	assert.False(t, weekly.needsRefreshAt(created.Add(167*time.Hour)))
	assert.True(t, weekly.needsRefreshAt(created.Add(168*time.Hour)))

	monthly := newTestForecast(t, PeriodMonthly)
	monthly.CreatedAt = time.Time{}
	assert.True(t, monthly.NeedsRefresh(), "never created forecasts are stale")
}
