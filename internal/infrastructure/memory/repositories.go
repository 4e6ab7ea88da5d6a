package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/paklog/workload-planning-service/internal/domain"
)

// ForecastRepository is an in-process domain.ForecastRepository. Aggregates are
// copied on the way in and out so callers never share state with the store.
type ForecastRepository struct {
	mu        sync.RWMutex
	forecasts map[string]*domain.DemandForecast
}

// NewForecastRepository creates an empty forecast store
func NewForecastRepository() *ForecastRepository {
	return &ForecastRepository{forecasts: make(map[string]*domain.DemandForecast)}
}

func (r *ForecastRepository) Save(_ context.Context, forecast *domain.DemandForecast) (*domain.DemandForecast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forecasts[forecast.ForecastID] = cloneForecast(forecast)
	return forecast, nil
}

func (r *ForecastRepository) FindByID(_ context.Context, forecastID string) (*domain.DemandForecast, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.forecasts[forecastID]; ok {
		return cloneForecast(f), nil
	}
	return nil, nil
}

func (r *ForecastRepository) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.DemandForecast, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.DemandForecast, 0)
	for _, f := range r.forecasts {
		if f.WarehouseID == warehouseID {
			out = append(out, cloneForecast(f))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newerFirst(out[i].ForecastDate, out[j].ForecastDate, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

// PlanRepository is an in-process domain.PlanRepository
type PlanRepository struct {
	mu    sync.RWMutex
	plans map[string]*domain.WorkloadPlan
}

// NewPlanRepository creates an empty plan store
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[string]*domain.WorkloadPlan)}
}

func (r *PlanRepository) Save(_ context.Context, plan *domain.WorkloadPlan) (*domain.WorkloadPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.PlanID] = clonePlan(plan)
	return plan, nil
}

func (r *PlanRepository) FindByID(_ context.Context, planID string) (*domain.WorkloadPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.plans[planID]; ok {
		return clonePlan(p), nil
	}
	return nil, nil
}

// FindByWarehouseAndDate returns the most recently created plan for the warehouse-day
func (r *PlanRepository) FindByWarehouseAndDate(ctx context.Context, warehouseID string, planDate time.Time) (*domain.WorkloadPlan, error) {
	day := domain.NormalizePlanDate(planDate)
	plans, _ := r.FindByWarehouse(ctx, warehouseID)
	for _, p := range plans {
		if p.PlanDate.Equal(day) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *PlanRepository) FindByWarehouse(_ context.Context, warehouseID string) ([]*domain.WorkloadPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.WorkloadPlan, 0)
	for _, p := range r.plans {
		if p.WarehouseID == warehouseID {
			out = append(out, clonePlan(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newerFirst(out[i].PlanDate, out[j].PlanDate, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, nil
}

// newerFirst orders by date descending, breaking ties by creation time descending
func newerFirst(dateA, dateB, createdA, createdB time.Time) bool {
	if !dateA.Equal(dateB) {
		return dateA.After(dateB)
	}
	return createdA.After(createdB)
}

func cloneForecast(f *domain.DemandForecast) *domain.DemandForecast {
	c := *f
	c.DataPoints = append([]domain.ForecastDataPoint(nil), f.DataPoints...)
	c.ModelParameters = make(map[string]float64, len(f.ModelParameters))
	for k, v := range f.ModelParameters {
		c.ModelParameters[k] = v
	}
	c.Accuracy = cloneFloat(f.Accuracy)
	c.MeanAbsoluteError = cloneFloat(f.MeanAbsoluteError)
	c.MeanSquaredError = cloneFloat(f.MeanSquaredError)
	return &c
}

func clonePlan(p *domain.WorkloadPlan) *domain.WorkloadPlan {
	c := *p
	c.PlannedVolumes = make(map[domain.WorkloadCategory]int, len(p.PlannedVolumes))
	for k, v := range p.PlannedVolumes {
		c.PlannedVolumes[k] = v
	}
	c.ShiftAssignments = make(map[domain.ShiftType][]domain.ShiftAssignment, len(p.ShiftAssignments))
	for k, v := range p.ShiftAssignments {
		c.ShiftAssignments[k] = append([]domain.ShiftAssignment(nil), v...)
	}
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}
