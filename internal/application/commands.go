package application

import (
	"time"

	"github.com/paklog/workload-planning-service/internal/domain"
)

// GenerateForecastCommand generates a demand forecast from historical volumes
type GenerateForecastCommand struct {
	WarehouseID    string
	Period         domain.ForecastPeriod
	ForecastDate   time.Time
	HistoricalData map[domain.WorkloadCategory][]int
}

// GetForecastQuery retrieves a forecast by ID
type GetForecastQuery struct {
	ForecastID string
}

// ListForecastsQuery retrieves the forecasts of a warehouse
type ListForecastsQuery struct {
	WarehouseID string
}

// CreatePlanCommand creates a plan from explicit volumes
type CreatePlanCommand struct {
	WarehouseID    string
	PlanDate       time.Time
	PlannedVolumes map[domain.WorkloadCategory]int
	Description    string
}

// CreatePlanFromForecastCommand creates a plan seeded with a forecast's totals
type CreatePlanFromForecastCommand struct {
	ForecastID string
	PlanDate   time.Time
}

// GetPlanQuery retrieves a plan by ID
type GetPlanQuery struct {
	PlanID string
}

// ListPlansQuery retrieves the plans of a warehouse
type ListPlansQuery struct {
	WarehouseID string
}

// AssignWorkerCommand assigns a worker to a shift
type AssignWorkerCommand struct {
	PlanID       string
	Shift        domain.ShiftType
	WorkerID     string
	WorkerName   string
	Category     domain.WorkloadCategory
	PlannedHours int
}

// RemoveWorkerCommand removes a worker's assignments from a shift
type RemoveWorkerCommand struct {
	PlanID   string
	Shift    domain.ShiftType
	WorkerID string
}

// OptimizeAllocationCommand runs the allocation engine over a plan
type OptimizeAllocationCommand struct {
	PlanID  string
	Workers []domain.WorkerCapacity
	// SkipAssigned leaves out workers the plan already holds, so a repeated
	// run over the same pool adds no second set of assignments.
	SkipAssigned bool
}

// ApprovePlanCommand approves a draft plan
type ApprovePlanCommand struct {
	PlanID     string
	ApprovedBy string
}

// PublishPlanCommand publishes an approved plan
type PublishPlanCommand struct {
	PlanID string
}

// CancelPlanCommand cancels a plan
type CancelPlanCommand struct {
	PlanID string
	Reason string
}

// GetRecommendationsQuery retrieves recommendations for a warehouse-day
type GetRecommendationsQuery struct {
	WarehouseID string
	Date        time.Time
}

// GetStaffingBreakdownQuery retrieves per-category and per-shift staffing needs for a forecast
type GetStaffingBreakdownQuery struct {
	ForecastID string
	PlanID     string // Optional plan supplying current assignments
}
