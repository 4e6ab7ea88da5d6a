package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/paklog/workload-planning-service/internal/activities"
	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/domain"
)

// DailyPlanningWorkflowName is the name the workflow is registered under
const DailyPlanningWorkflowName = "DailyPlanningWorkflow"

// DailyPlanningInput represents the input for the daily planning workflow
type DailyPlanningInput struct {
	WarehouseID    string                  `json:"warehouseId"`
	Period         string                  `json:"period"`
	ForecastDate   time.Time               `json:"forecastDate"`
	PlanDate       time.Time               `json:"planDate"`
	HistoricalData map[string][]int        `json:"historicalData"`
	Workers        []domain.WorkerCapacity `json:"workers"`
	AutoApprove    bool                    `json:"autoApprove"`
	ApprovedBy     string                  `json:"approvedBy,omitempty"`
}

// DailyPlanningResult represents the result of the daily planning workflow
type DailyPlanningResult struct {
	ForecastID     string   `json:"forecastId"`
	PlanID         string   `json:"planId"`
	Utilization    float64  `json:"utilization"`
	StaffingStatus string   `json:"staffingStatus"`
	Assigned       int      `json:"assigned"`
	SkippedWorkers []string `json:"skippedWorkers,omitempty"`
	Approved       bool     `json:"approved"`
	Status         string   `json:"status"`
}

// DailyPlanningWorkflow forecasts demand for a warehouse-day, drafts a plan from the
// forecast, staffs it with the allocation engine and optionally approves it.
// The plan is approved only when AutoApprove is set and the optimized plan is balanced.
func DailyPlanningWorkflow(ctx workflow.Context, input DailyPlanningInput) (*DailyPlanningResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting daily planning workflow", "warehouseId", input.WarehouseID, "workers", len(input.Workers))

	if input.WarehouseID == "" {
		return nil, fmt.Errorf("warehouseId is required")
	}

	period := input.Period
	if period == "" {
		period = domain.PeriodDaily.String()
	}
	forecastDate := input.ForecastDate
	if forecastDate.IsZero() {
		forecastDate = workflow.Now(ctx).UTC()
	}
	planDate := input.PlanDate
	if planDate.IsZero() {
		planDate = forecastDate
	}

	ctx = workflow.WithActivityOptions(ctx, StandardActivityOptions())

	// Step 1: Forecast demand
	var forecast application.ForecastDTO
	err := workflow.ExecuteActivity(ctx, "GenerateForecast", activities.GenerateForecastInput{
		WarehouseID:    input.WarehouseID,
		Period:         period,
		ForecastDate:   forecastDate,
		HistoricalData: input.HistoricalData,
	}).Get(ctx, &forecast)
	if err != nil {
		return nil, fmt.Errorf("forecast generation failed: %w", err)
	}

	result := &DailyPlanningResult{ForecastID: forecast.ForecastID}

	// Step 2: Draft a plan from the forecast totals
	var plan application.PlanDTO
	err = workflow.ExecuteActivity(ctx, "CreatePlanFromForecast", activities.CreatePlanInput{
		ForecastID: forecast.ForecastID,
		PlanDate:   planDate,
	}).Get(ctx, &plan)
	if err != nil {
		return result, fmt.Errorf("plan creation failed: %w", err)
	}
	result.PlanID = plan.PlanID
	result.Status = plan.Status
	result.StaffingStatus = plan.StaffingStatus

	// Step 3: Staff the plan
	var allocation application.AllocationDTO
	err = workflow.ExecuteActivity(ctx, "OptimizeAllocation", activities.OptimizeInput{
		PlanID:  plan.PlanID,
		Workers: input.Workers,
	}).Get(ctx, &allocation)
	if err != nil {
		return result, fmt.Errorf("allocation failed: %w", err)
	}
	result.Utilization = allocation.Plan.UtilizationPercentage
	result.StaffingStatus = allocation.Plan.StaffingStatus
	result.Assigned = len(allocation.Assignments)
	result.SkippedWorkers = allocation.SkippedWorkers
	result.Status = allocation.Plan.Status

	// Step 4: Approve a balanced plan
	if input.AutoApprove && result.StaffingStatus == domain.StaffingBalanced {
		approvedBy := input.ApprovedBy
		if approvedBy == "" {
			approvedBy = DailyPlanningWorkflowName
		}

		var approved application.PlanDTO
		err = workflow.ExecuteActivity(ctx, "ApprovePlan", activities.ApproveInput{
			PlanID:     plan.PlanID,
			ApprovedBy: approvedBy,
		}).Get(ctx, &approved)
		if err != nil {
			return result, fmt.Errorf("plan approval failed: %w", err)
		}
		result.Approved = true
		result.Status = approved.Status
	} else if input.AutoApprove {
		logger.Warn("Plan left in draft, staffing is not balanced", "planId", plan.PlanID, "staffingStatus", result.StaffingStatus)
	}

	logger.Info("Daily planning workflow completed",
		"planId", result.PlanID,
		"utilization", result.Utilization,
		"staffingStatus", result.StaffingStatus,
		"approved", result.Approved,
	)
	return result, nil
}
