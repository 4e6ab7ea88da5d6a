package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/pkg/errors"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
)

const (
	forecastResource = "demand forecast"
	planResource     = "workload plan"

	highStaffingThreshold = 10
	targetUtilization     = 85.0
)

var validationErrors = []error{
	domain.ErrNegativeVolume,
	domain.ErrNegativeConfidence,
	domain.ErrInvalidCategory,
	domain.ErrInvalidShift,
	domain.ErrInvalidSkillLevel,
	domain.ErrInvalidPeriod,
	domain.ErrInvalidPlannedHours,
	domain.ErrMissingIdentifier,
	domain.ErrMissingPlanDate,
	domain.ErrMissingForecastDate,
}

// PlanningService handles forecasting and workload planning use cases
type PlanningService struct {
	forecasts domain.ForecastRepository
	plans     domain.PlanRepository
	events    domain.EventSink
	generator *ForecastGenerator
	engine    *domain.AllocationEngine
	metrics   *metrics.Metrics
	logger    *logging.Logger
	newID     func() string
}

// Option configures a PlanningService
type Option func(*PlanningService)

// WithIDGenerator overrides how forecast and plan identifiers are minted
func WithIDGenerator(newID func() string) Option {
	return func(s *PlanningService) {
		s.newID = newID
	}
}

// WithMetrics records business metrics on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *PlanningService) {
		s.metrics = m
	}
}

// NewPlanningService creates a new PlanningService. events may be nil, in which case
// nothing is published.
func NewPlanningService(
	forecasts domain.ForecastRepository,
	plans domain.PlanRepository,
	events domain.EventSink,
	logger *logging.Logger,
	opts ...Option,
) *PlanningService {
	s := &PlanningService{
		forecasts: forecasts,
		plans:     plans,
		events:    events,
		engine:    domain.NewAllocationEngine(),
		logger:    logger.WithComponent("planning-service"),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.generator = NewForecastGenerator(s.newID)
	return s
}

// GenerateForecast builds a demand forecast from historical volumes and stores it
func (s *PlanningService) GenerateForecast(ctx context.Context, cmd GenerateForecastCommand) (*ForecastDTO, error) {
	for category, observations := range cmd.HistoricalData {
		if !category.IsValid() {
			return nil, errors.ErrValidation(fmt.Sprintf("invalid workload category: %q", category))
		}
		for _, v := range observations {
			if v < 0 {
				return nil, errors.ErrValidation(fmt.Sprintf("historical volume for %s must not be negative", category))
			}
		}
	}

	forecast, err := s.generator.Generate(cmd.WarehouseID, cmd.Period, cmd.ForecastDate, cmd.HistoricalData)
	if err != nil {
		return nil, mapDomainError(err)
	}

	saved, err := s.forecasts.Save(ctx, forecast)
	if err != nil {
		s.logger.WithError(err).Error("Failed to save demand forecast", "forecastId", forecast.ForecastID)
		return nil, fmt.Errorf("failed to save demand forecast: %w", err)
	}
	if saved != nil {
		forecast = saved
	}

	s.metrics.RecordForecastGenerated(forecast.Period.String(), forecast.ForecastingModel)
	s.emit(ctx, domain.ForecastGeneratedEvent(forecast))

	s.logger.Info("Generated demand forecast",
		"forecastId", forecast.ForecastID,
		"warehouseId", forecast.WarehouseID,
		"period", forecast.Period,
		"dataPoints", len(forecast.DataPoints),
	)
	return ToForecastDTO(forecast), nil
}

// GetForecast retrieves a forecast by ID
func (s *PlanningService) GetForecast(ctx context.Context, query GetForecastQuery) (*ForecastDTO, error) {
	forecast, err := s.loadForecast(ctx, query.ForecastID)
	if err != nil {
		return nil, err
	}
	return ToForecastDTO(forecast), nil
}

// ListForecasts retrieves the forecasts of a warehouse, newest first
func (s *PlanningService) ListForecasts(ctx context.Context, query ListForecastsQuery) ([]ForecastDTO, error) {
	forecasts, err := s.forecasts.FindByWarehouse(ctx, query.WarehouseID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list demand forecasts", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to list demand forecasts: %w", err)
	}
	return ToForecastDTOs(forecasts), nil
}

// CreatePlan creates a plan from explicit planned volumes
func (s *PlanningService) CreatePlan(ctx context.Context, cmd CreatePlanCommand) (*PlanDTO, error) {
	for category, volume := range cmd.PlannedVolumes {
		if !category.IsValid() {
			return nil, errors.ErrValidation(fmt.Sprintf("invalid workload category: %q", category))
		}
		if volume < 0 {
			return nil, errors.ErrValidation(fmt.Sprintf("planned volume for %s must not be negative", category))
		}
	}

	plan, err := domain.NewWorkloadPlan(s.newID(), cmd.WarehouseID, cmd.PlanDate)
	if err != nil {
		return nil, mapDomainError(err)
	}
	plan.Notes = cmd.Description

	for _, category := range domain.WorkloadCategories() {
		volume, ok := cmd.PlannedVolumes[category]
		if !ok {
			continue
		}
		if err := plan.SetPlannedVolume(category, volume); err != nil {
			return nil, mapDomainError(err)
		}
	}

	return s.saveNewPlan(ctx, plan)
}

// CreatePlanFromForecast creates a plan whose volumes are the forecast's per-category totals.
// The plan keeps a snapshot; later forecast changes do not affect it.
func (s *PlanningService) CreatePlanFromForecast(ctx context.Context, cmd CreatePlanFromForecastCommand) (*PlanDTO, error) {
	forecast, err := s.loadForecast(ctx, cmd.ForecastID)
	if err != nil {
		return nil, err
	}

	planDate := cmd.PlanDate
	if planDate.IsZero() {
		planDate = forecast.ForecastDate
	}

	plan, err := domain.NewWorkloadPlan(s.newID(), forecast.WarehouseID, planDate)
	if err != nil {
		return nil, mapDomainError(err)
	}

	for _, category := range domain.WorkloadCategories() {
		if total := forecast.TotalForecastedVolume(category); total > 0 {
			if err := plan.SetPlannedVolume(category, total); err != nil {
				return nil, mapDomainError(err)
			}
		}
	}

	return s.saveNewPlan(ctx, plan)
}

// GetPlan retrieves a plan by ID
func (s *PlanningService) GetPlan(ctx context.Context, query GetPlanQuery) (*PlanDTO, error) {
	plan, err := s.loadPlan(ctx, query.PlanID)
	if err != nil {
		return nil, err
	}
	return ToPlanDTO(plan), nil
}

// ListPlans retrieves the plans of a warehouse, newest first
func (s *PlanningService) ListPlans(ctx context.Context, query ListPlansQuery) ([]PlanDTO, error) {
	plans, err := s.plans.FindByWarehouse(ctx, query.WarehouseID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list workload plans", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to list workload plans: %w", err)
	}
	return ToPlanDTOs(plans), nil
}

// AssignWorker books a worker on a shift for a category
func (s *PlanningService) AssignWorker(ctx context.Context, cmd AssignWorkerCommand) (*PlanDTO, error) {
	plan, err := s.loadPlan(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	if err := plan.AssignWorkerToShift(cmd.Shift, cmd.WorkerID, cmd.WorkerName, cmd.Category, cmd.PlannedHours); err != nil {
		return nil, mapDomainError(err)
	}

	if plan, err = s.savePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.metrics.RecordWorkerAllocated("manual", cmd.Category.String())
	s.emit(ctx, domain.WorkerAssignedEvent(plan, cmd.Shift, domain.ShiftAssignment{
		WorkerID:        cmd.WorkerID,
		WorkerName:      cmd.WorkerName,
		PrimaryCategory: cmd.Category,
		PlannedHours:    cmd.PlannedHours,
	}))

	s.logger.Info("Assigned worker to shift", "planId", plan.PlanID, "workerId", cmd.WorkerID, "shift", cmd.Shift)
	return ToPlanDTO(plan), nil
}

// RemoveWorker drops every assignment of a worker on a shift. Removing an absent worker is a no-op.
func (s *PlanningService) RemoveWorker(ctx context.Context, cmd RemoveWorkerCommand) (*PlanDTO, error) {
	if !cmd.Shift.IsValid() {
		return nil, errors.ErrValidation(fmt.Sprintf("invalid shift type: %q", cmd.Shift))
	}

	plan, err := s.loadPlan(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	if !plan.RemoveWorkerFromShift(cmd.Shift, cmd.WorkerID) {
		return ToPlanDTO(plan), nil
	}

	if plan, err = s.savePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.emit(ctx, domain.WorkerRemovedEvent(plan, cmd.Shift, cmd.WorkerID))

	s.logger.Info("Removed worker from shift", "planId", plan.PlanID, "workerId", cmd.WorkerID, "shift", cmd.Shift)
	return ToPlanDTO(plan), nil
}

// OptimizeAllocation assigns the given workers with the greedy allocation engine
func (s *PlanningService) OptimizeAllocation(ctx context.Context, cmd OptimizeAllocationCommand) (*AllocationDTO, error) {
	for i := range cmd.Workers {
		if err := cmd.Workers[i].Validate(); err != nil {
			return nil, errors.ErrValidation(fmt.Sprintf("worker %d: %s", i, err.Error()))
		}
	}

	plan, err := s.loadPlan(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}

	workers := cmd.Workers
	if cmd.SkipAssigned {
		workers = unassignedWorkers(plan, workers)
	}

	result, err := s.engine.Allocate(plan, workers)
	if err != nil {
		return nil, mapDomainError(err)
	}

	if plan, err = s.savePlan(ctx, plan); err != nil {
		return nil, err
	}

	for _, a := range result.Assignments {
		s.metrics.RecordWorkerAllocated("optimizer", a.Category.String())
	}
	s.metrics.ObservePlanUtilization(plan.StaffingStatus(), plan.UtilizationPercentage)
	s.emit(ctx, domain.PlanOptimizedEvent(plan, len(result.Assignments)))

	s.logger.Info("Optimized labor allocation",
		"planId", plan.PlanID,
		"assigned", len(result.Assignments),
		"skipped", len(result.SkippedWorkers),
		"utilization", plan.UtilizationPercentage,
	)
	return ToAllocationDTO(plan, result), nil
}

// ApprovePlan approves a draft plan
func (s *PlanningService) ApprovePlan(ctx context.Context, cmd ApprovePlanCommand) (*PlanDTO, error) {
	approvedBy := cmd.ApprovedBy
	if approvedBy == "" {
		approvedBy = "system"
	}

	return s.transition(ctx, cmd.PlanID, func(plan *domain.WorkloadPlan) error {
		return plan.Approve()
	}, func(plan *domain.WorkloadPlan) domain.PlanningEvent {
		return domain.PlanApprovedEvent(plan, approvedBy)
	})
}

// PublishPlan publishes an approved plan
func (s *PlanningService) PublishPlan(ctx context.Context, cmd PublishPlanCommand) (*PlanDTO, error) {
	return s.transition(ctx, cmd.PlanID, func(plan *domain.WorkloadPlan) error {
		return plan.Publish()
	}, domain.PlanPublishedEvent)
}

// CancelPlan cancels a plan from any status, replacing its notes with reason
func (s *PlanningService) CancelPlan(ctx context.Context, cmd CancelPlanCommand) (*PlanDTO, error) {
	return s.transition(ctx, cmd.PlanID, func(plan *domain.WorkloadPlan) error {
		plan.Cancel(cmd.Reason)
		return nil
	}, func(plan *domain.WorkloadPlan) domain.PlanningEvent {
		return domain.PlanCancelledEvent(plan, cmd.Reason)
	})
}

// GetRecommendations combines the warehouse's latest forecast with its plan for the given day
func (s *PlanningService) GetRecommendations(ctx context.Context, query GetRecommendationsQuery) (*RecommendationsDTO, error) {
	forecasts, err := s.forecasts.FindByWarehouse(ctx, query.WarehouseID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list demand forecasts", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to list demand forecasts: %w", err)
	}

	var latest *domain.DemandForecast
	if len(forecasts) > 0 {
		latest = forecasts[0]
	}

	planDate := domain.NormalizePlanDate(query.Date)
	plan, err := s.plans.FindByWarehouseAndDate(ctx, query.WarehouseID, planDate)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workload plan", "warehouseId", query.WarehouseID)
		return nil, fmt.Errorf("failed to get workload plan: %w", err)
	}

	return &RecommendationsDTO{
		WarehouseID:     query.WarehouseID,
		Date:            planDate.Format(time.DateOnly),
		Recommendations: BuildRecommendations(latest, plan),
		LatestForecast:  ToForecastDTO(latest),
		CurrentPlan:     ToPlanDTO(plan),
	}, nil
}

// GetStaffingBreakdown derives per-category and per-shift staffing needs from a forecast.
// When PlanID is set the plan's assignments supply the current worker counts.
func (s *PlanningService) GetStaffingBreakdown(ctx context.Context, query GetStaffingBreakdownQuery) (*StaffingBreakdownDTO, error) {
	forecast, err := s.loadForecast(ctx, query.ForecastID)
	if err != nil {
		return nil, err
	}

	var plan *domain.WorkloadPlan
	if query.PlanID != "" {
		if plan, err = s.loadPlan(ctx, query.PlanID); err != nil {
			return nil, err
		}
	}

	return BuildStaffingBreakdown(forecast, plan), nil
}

// BuildRecommendations renders the advice lines for a forecast/plan pair. Either may be nil.
func BuildRecommendations(forecast *domain.DemandForecast, plan *domain.WorkloadPlan) []string {
	recommendations := make([]string, 0)

	if plan != nil {
		switch {
		case plan.IsUnderstaffed():
			recommendations = append(recommendations, fmt.Sprintf(
				"UNDERSTAFFED: Utilization at %.1f%%. Consider adding %d workers.",
				plan.UtilizationPercentage, additionalWorkersNeeded(plan)))
		case plan.IsOverstaffed():
			recommendations = append(recommendations, fmt.Sprintf(
				"OVERSTAFFED: Utilization at %.1f%%. Consider reducing by %d workers.",
				plan.UtilizationPercentage, excessWorkers(plan)))
		case plan.IsBalanced():
			recommendations = append(recommendations, fmt.Sprintf(
				"OPTIMAL: Utilization at %.1f%%. Plan is well-balanced.",
				plan.UtilizationPercentage))
		}
	}

	if forecast != nil && !forecast.IsAccurate() {
		accuracy := 0.0
		if forecast.Accuracy != nil {
			accuracy = *forecast.Accuracy
		}
		recommendations = append(recommendations, fmt.Sprintf(
			"LOW FORECAST ACCURACY: Current accuracy %.1f%%. Recommend model refinement.", accuracy))
	}

	return recommendations
}

// BuildStaffingBreakdown computes the staffing report for a forecast. plan may be nil.
func BuildStaffingBreakdown(forecast *domain.DemandForecast, plan *domain.WorkloadPlan) *StaffingBreakdownDTO {
	breakdown := &StaffingBreakdownDTO{
		WarehouseID:          forecast.WarehouseID,
		ForecastID:           forecast.ForecastID,
		Categories:           make(map[string]CategoryStaffingDTO),
		Shifts:               make(map[string]ShiftStaffingDTO),
		ProjectedUtilization: targetUtilization,
		BalanceStatus:        domain.StaffingBalanced,
		Warnings:             make([]string, 0),
		Suggestions:          make([]string, 0),
	}
	if plan != nil {
		breakdown.PlanID = plan.PlanID
	}

	totalRequired := 0
	for _, category := range domain.WorkloadCategories() {
		volume := forecast.TotalForecastedVolume(category)
		required := category.CalculateRequiredWorkers(volume, domain.StandardShiftHours)
		current := 0
		if plan != nil {
			current = plan.WorkersForCategory(category)
		}

		breakdown.Categories[category.String()] = CategoryStaffingDTO{
			Category:           category.String(),
			ForecastedVolume:   volume,
			RequiredWorkers:    required,
			CurrentWorkers:     current,
			Gap:                required - current,
			RequiredLaborHours: category.CalculateLaborHours(volume),
		}
		totalRequired += required

		if required > highStaffingThreshold {
			breakdown.Warnings = append(breakdown.Warnings,
				fmt.Sprintf("High staffing requirement for %s: %d workers", category, required))
		}
	}

	shifts := domain.ShiftTypes()
	perShift := totalRequired / len(shifts)
	for _, shift := range shifts {
		current := 0
		if plan != nil {
			current = len(plan.AssignmentsFor(shift))
		}

		breakdown.Shifts[shift.String()] = ShiftStaffingDTO{
			Shift:           shift.String(),
			RequiredWorkers: perShift,
			CurrentWorkers:  current,
			Gap:             perShift - current,
		}

		if shift.IsNightShift() || shift.IsWeekendShift() {
			kind := "night"
			if shift.IsWeekendShift() {
				kind = "weekend"
			}
			breakdown.Suggestions = append(breakdown.Suggestions, fmt.Sprintf(
				"Consider %s premium (%.0f%%) for %s", kind, (shift.PremiumMultiplier()-1.0)*100, shift))
		}
	}

	return breakdown
}

func unassignedWorkers(plan *domain.WorkloadPlan, workers []domain.WorkerCapacity) []domain.WorkerCapacity {
	out := make([]domain.WorkerCapacity, 0, len(workers))
	for _, w := range workers {
		if !plan.HasWorker(w.WorkerID) {
			out = append(out, w)
		}
	}
	return out
}

func additionalWorkersNeeded(plan *domain.WorkloadPlan) int {
	if plan.TotalAvailableLaborHours == 0 {
		return 0
	}
	shortage := plan.TotalRequiredLaborHours - plan.TotalAvailableLaborHours
	return max(0, int(math.Ceil(float64(shortage)/domain.StandardShiftHours)))
}

func excessWorkers(plan *domain.WorkloadPlan) int {
	if plan.TotalRequiredLaborHours == 0 {
		return 0
	}
	excess := plan.TotalAvailableLaborHours - plan.TotalRequiredLaborHours
	return max(0, int(math.Floor(float64(excess)/domain.StandardShiftHours)))
}

func (s *PlanningService) transition(
	ctx context.Context,
	planID string,
	apply func(*domain.WorkloadPlan) error,
	event func(*domain.WorkloadPlan) domain.PlanningEvent,
) (*PlanDTO, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	from := plan.Status
	if err := apply(plan); err != nil {
		return nil, mapDomainError(err)
	}

	if plan, err = s.savePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.metrics.RecordPlanTransition(string(plan.Status))
	s.emit(ctx, event(plan))
	s.logger.PlanTransition(ctx, plan.PlanID, string(from), string(plan.Status))
	return ToPlanDTO(plan), nil
}

func (s *PlanningService) saveNewPlan(ctx context.Context, plan *domain.WorkloadPlan) (*PlanDTO, error) {
	plan, err := s.savePlan(ctx, plan)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPlanTransition(string(plan.Status))
	s.emit(ctx, domain.PlanCreatedEvent(plan))

	s.logger.Info("Created workload plan",
		"planId", plan.PlanID,
		"warehouseId", plan.WarehouseID,
		"planDate", plan.PlanDate.Format(time.DateOnly),
		"requiredHours", plan.TotalRequiredLaborHours,
	)
	return ToPlanDTO(plan), nil
}

func (s *PlanningService) savePlan(ctx context.Context, plan *domain.WorkloadPlan) (*domain.WorkloadPlan, error) {
	saved, err := s.plans.Save(ctx, plan)
	if err != nil {
		s.logger.WithError(err).Error("Failed to save workload plan", "planId", plan.PlanID)
		return nil, fmt.Errorf("failed to save workload plan: %w", err)
	}
	if saved == nil {
		return plan, nil
	}
	return saved, nil
}

func (s *PlanningService) loadPlan(ctx context.Context, planID string) (*domain.WorkloadPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get workload plan", "planId", planID)
		return nil, fmt.Errorf("failed to get workload plan: %w", err)
	}
	if plan == nil {
		return nil, errors.ErrNotFoundWithID(planResource, planID)
	}
	return plan, nil
}

func (s *PlanningService) loadForecast(ctx context.Context, forecastID string) (*domain.DemandForecast, error) {
	forecast, err := s.forecasts.FindByID(ctx, forecastID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get demand forecast", "forecastId", forecastID)
		return nil, fmt.Errorf("failed to get demand forecast: %w", err)
	}
	if forecast == nil {
		return nil, errors.ErrNotFoundWithID(forecastResource, forecastID)
	}
	return forecast, nil
}

// emit hands an event to the sink. Failures are logged and never returned.
func (s *PlanningService) emit(ctx context.Context, event domain.PlanningEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.metrics.RecordEventPublishFailure(event.Type)
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to publish planning event",
			"eventType", event.Type,
			"subjectId", event.SubjectID,
		)
	}
}

func mapDomainError(err error) error {
	return errors.MapDomainError(err, classifyDomainError)
}

func classifyDomainError(err error) *errors.AppError {
	if stderrors.Is(err, domain.ErrInvalidTransition) {
		return errors.ErrInvalidTransition(err.Error())
	}
	for _, target := range validationErrors {
		if stderrors.Is(err, target) {
			return errors.ErrValidation(err.Error())
		}
	}
	return nil
}
