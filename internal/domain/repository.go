package domain

import (
	"context"
	"time"
)

// ForecastRepository persists DemandForecast aggregates.
// FindByID returns (nil, nil) when the forecast does not exist.
type ForecastRepository interface {
	Save(ctx context.Context, forecast *DemandForecast) (*DemandForecast, error)
	FindByID(ctx context.Context, forecastID string) (*DemandForecast, error)
	// FindByWarehouse returns forecasts ordered by forecast date, newest first
	FindByWarehouse(ctx context.Context, warehouseID string) ([]*DemandForecast, error)
}

// PlanRepository persists WorkloadPlan aggregates.
// Find methods return (nil, nil) when nothing matches.
type PlanRepository interface {
	Save(ctx context.Context, plan *WorkloadPlan) (*WorkloadPlan, error)
	FindByID(ctx context.Context, planID string) (*WorkloadPlan, error)
	FindByWarehouseAndDate(ctx context.Context, warehouseID string, planDate time.Time) (*WorkloadPlan, error)
	// FindByWarehouse returns plans ordered by plan date, newest first
	FindByWarehouse(ctx context.Context, warehouseID string) ([]*WorkloadPlan, error)
}

// EventSink delivers planning events on a best-effort basis
type EventSink interface {
	Publish(ctx context.Context, event PlanningEvent) error
}
