package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/errors"
	"github.com/paklog/workload-planning-service/pkg/metrics"
)

// Planner is the subset of the planning service driven by the daily planning workflow
type Planner interface {
	GenerateForecast(ctx context.Context, cmd application.GenerateForecastCommand) (*application.ForecastDTO, error)
	CreatePlanFromForecast(ctx context.Context, cmd application.CreatePlanFromForecastCommand) (*application.PlanDTO, error)
	OptimizeAllocation(ctx context.Context, cmd application.OptimizeAllocationCommand) (*application.AllocationDTO, error)
	ApprovePlan(ctx context.Context, cmd application.ApprovePlanCommand) (*application.PlanDTO, error)
}

// GenerateForecastInput is the input of the GenerateForecast activity
type GenerateForecastInput struct {
	WarehouseID    string           `json:"warehouseId"`
	Period         string           `json:"period"`
	ForecastDate   time.Time        `json:"forecastDate"`
	HistoricalData map[string][]int `json:"historicalData"`
}

// CreatePlanInput is the input of the CreatePlanFromForecast activity
type CreatePlanInput struct {
	ForecastID string    `json:"forecastId"`
	PlanDate   time.Time `json:"planDate"`
}

// OptimizeInput is the input of the OptimizeAllocation activity
type OptimizeInput struct {
	PlanID  string                  `json:"planId"`
	Workers []domain.WorkerCapacity `json:"workers"`
}

// ApproveInput is the input of the ApprovePlan activity
type ApproveInput struct {
	PlanID     string `json:"planId"`
	ApprovedBy string `json:"approvedBy"`
}

// PlanningActivities exposes planning service operations as Temporal activities
type PlanningActivities struct {
	planner Planner
	metrics *metrics.Metrics
}

// NewPlanningActivities creates a new PlanningActivities instance
func NewPlanningActivities(planner Planner, m *metrics.Metrics) *PlanningActivities {
	return &PlanningActivities{planner: planner, metrics: m}
}

// GenerateForecast generates and stores a demand forecast
func (a *PlanningActivities) GenerateForecast(ctx context.Context, input GenerateForecastInput) (*application.ForecastDTO, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Generating demand forecast", "warehouseId", input.WarehouseID, "period", input.Period)

	period, err := domain.ParseForecastPeriod(input.Period)
	if err != nil {
		return nil, nonRetryable(errors.ErrValidation(err.Error()))
	}

	history := make(map[domain.WorkloadCategory][]int, len(input.HistoricalData))
	for raw, observations := range input.HistoricalData {
		category, err := domain.ParseWorkloadCategory(raw)
		if err != nil {
			return nil, nonRetryable(errors.ErrValidation(err.Error()))
		}
		history[category] = observations
	}

	start := time.Now()
	forecast, err := a.planner.GenerateForecast(withWorkflowContext(ctx), application.GenerateForecastCommand{
		WarehouseID:    input.WarehouseID,
		Period:         period,
		ForecastDate:   input.ForecastDate,
		HistoricalData: history,
	})
	a.metrics.RecordActivityCompleted("GenerateForecast", err == nil, time.Since(start))
	if err != nil {
		return nil, nonRetryable(err)
	}
	return forecast, nil
}

// CreatePlanFromForecast creates a draft plan seeded with the forecast totals
func (a *PlanningActivities) CreatePlanFromForecast(ctx context.Context, input CreatePlanInput) (*application.PlanDTO, error) {
	activity.GetLogger(ctx).Info("Creating plan from forecast", "forecastId", input.ForecastID)

	start := time.Now()
	plan, err := a.planner.CreatePlanFromForecast(withWorkflowContext(ctx), application.CreatePlanFromForecastCommand{
		ForecastID: input.ForecastID,
		PlanDate:   input.PlanDate,
	})
	a.metrics.RecordActivityCompleted("CreatePlanFromForecast", err == nil, time.Since(start))
	if err != nil {
		return nil, nonRetryable(err)
	}
	return plan, nil
}

// OptimizeAllocation runs the allocation engine over the plan. Workers already on
// the plan are skipped, so a retry after a saved attempt assigns nobody twice.
func (a *PlanningActivities) OptimizeAllocation(ctx context.Context, input OptimizeInput) (*application.AllocationDTO, error) {
	activity.GetLogger(ctx).Info("Optimizing allocation", "planId", input.PlanID, "workers", len(input.Workers))

	start := time.Now()
	allocation, err := a.planner.OptimizeAllocation(withWorkflowContext(ctx), application.OptimizeAllocationCommand{
		PlanID:       input.PlanID,
		Workers:      input.Workers,
		SkipAssigned: true,
	})
	a.metrics.RecordActivityCompleted("OptimizeAllocation", err == nil, time.Since(start))
	if err != nil {
		return nil, nonRetryable(err)
	}
	return allocation, nil
}

// ApprovePlan approves the plan
func (a *PlanningActivities) ApprovePlan(ctx context.Context, input ApproveInput) (*application.PlanDTO, error) {
	activity.GetLogger(ctx).Info("Approving plan", "planId", input.PlanID, "approvedBy", input.ApprovedBy)

	start := time.Now()
	plan, err := a.planner.ApprovePlan(withWorkflowContext(ctx), application.ApprovePlanCommand{
		PlanID:     input.PlanID,
		ApprovedBy: input.ApprovedBy,
	})
	a.metrics.RecordActivityCompleted("ApprovePlan", err == nil, time.Since(start))
	if err != nil {
		return nil, nonRetryable(err)
	}
	return plan, nil
}

// withWorkflowContext tags events emitted by the activity with the workflow that ran it
func withWorkflowContext(ctx context.Context) context.Context {
	if !activity.IsActivity(ctx) {
		return ctx
	}
	info := activity.GetInfo(ctx)
	ctx = cloudevents.ContextWithWorkflowID(ctx, info.WorkflowExecution.ID)
	return cloudevents.ContextWithCorrelationID(ctx, info.WorkflowExecution.ID)
}

// nonRetryable converts client errors into application errors Temporal will not retry.
// Anything else is returned unchanged so the retry policy applies.
func nonRetryable(err error) error {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return err
	}

	switch appErr.Code {
	case errors.CodeValidationError, errors.CodeBadRequest:
		return temporal.NewNonRetryableApplicationError(appErr.Message, ErrorTypeValidation, err)
	case errors.CodeNotFound:
		return temporal.NewNonRetryableApplicationError(appErr.Message, ErrorTypeNotFound, err)
	case errors.CodeInvalidTransition, errors.CodeConflict:
		return temporal.NewNonRetryableApplicationError(appErr.Message, ErrorTypeConflict, err)
	default:
		return err
	}
}

// Application error types surfaced to workflows
const (
	ErrorTypeValidation = "ValidationError"
	ErrorTypeNotFound   = "NotFoundError"
	ErrorTypeConflict   = "ConflictError"
)
