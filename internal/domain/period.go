package domain

import (
	"fmt"
	"strings"
	"time"
)

// ForecastPeriod is the time horizon used for demand forecasting
type ForecastPeriod string

const (
	PeriodHourly  ForecastPeriod = "HOURLY"
	PeriodDaily   ForecastPeriod = "DAILY"
	PeriodWeekly  ForecastPeriod = "WEEKLY"
	PeriodMonthly ForecastPeriod = "MONTHLY"
)

type periodProfile struct {
	description    string
	hoursPerPeriod int
	periodsAhead   int
	model          string
}

var forecastPeriods = []ForecastPeriod{PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly}

var periodProfiles = map[ForecastPeriod]periodProfile{
	PeriodHourly:  {"Hourly forecast", 1, 24, "EXPONENTIAL_SMOOTHING"},
	PeriodDaily:   {"Daily forecast", 24, 30, "MOVING_AVERAGE"},
	PeriodWeekly:  {"Weekly forecast", 168, 12, "WEIGHTED_MOVING_AVERAGE"},
	PeriodMonthly: {"Monthly forecast", 720, 6, "SEASONAL_DECOMPOSITION"},
}

// ForecastPeriods returns every period in enumeration order
func ForecastPeriods() []ForecastPeriod {
	out := make([]ForecastPeriod, len(forecastPeriods))
	copy(out, forecastPeriods)
	return out
}

// ParseForecastPeriod converts a string into a ForecastPeriod
func ParseForecastPeriod(s string) (ForecastPeriod, error) {
	p := ForecastPeriod(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// IsValid reports whether p is one of the known periods
func (p ForecastPeriod) IsValid() bool {
	_, ok := periodProfiles[p]
	return ok
}

func (p ForecastPeriod) String() string {
	return string(p)
}

func (p ForecastPeriod) Description() string {
	return periodProfiles[p].description
}

// HoursPerPeriod returns the spacing between consecutive forecast points
func (p ForecastPeriod) HoursPerPeriod() int {
	return periodProfiles[p].hoursPerPeriod
}

// PeriodsAhead returns how many points a forecast generates
func (p ForecastPeriod) PeriodsAhead() int {
	return periodProfiles[p].periodsAhead
}

// TotalForecastHours returns the full horizon in hours
func (p ForecastPeriod) TotalForecastHours() int {
	return p.HoursPerPeriod() * p.PeriodsAhead()
}

// ModelName returns the forecasting model label recorded for the period.
// The label is metadata; every period uses the same moving-average computation.
func (p ForecastPeriod) ModelName() string {
	return periodProfiles[p].model
}

// RefreshThreshold returns how old a forecast of this period may get before it is stale.
func (p ForecastPeriod) RefreshThreshold() time.Duration {
	return time.Duration(p.HoursPerPeriod()) * time.Hour
}

func (p ForecastPeriod) IsShortTerm() bool {
	return p == PeriodHourly || p == PeriodDaily
}

func (p ForecastPeriod) IsLongTerm() bool {
	return p == PeriodWeekly || p == PeriodMonthly
}
