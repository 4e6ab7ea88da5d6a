package application

import (
	"time"

	"github.com/paklog/workload-planning-service/internal/domain"
)

// ToForecastDTO converts a domain forecast to a DTO
func ToForecastDTO(forecast *domain.DemandForecast) *ForecastDTO {
	if forecast == nil {
		return nil
	}

	points := make([]DataPointDTO, 0, len(forecast.DataPoints))
	for _, dp := range forecast.DataPoints {
		points = append(points, DataPointDTO{
			Timestamp:          dp.Timestamp,
			Category:           dp.Category.String(),
			ForecastedVolume:   dp.ForecastedVolume,
			ConfidenceInterval: dp.ConfidenceInterval,
		})
	}

	params := make(map[string]float64, len(forecast.ModelParameters))
	for k, v := range forecast.ModelParameters {
		params[k] = v
	}

	return &ForecastDTO{
		ForecastID:        forecast.ForecastID,
		WarehouseID:       forecast.WarehouseID,
		Period:            forecast.Period.String(),
		ForecastDate:      forecast.ForecastDate,
		ForecastingModel:  forecast.ForecastingModel,
		ModelParameters:   params,
		Accuracy:          forecast.Accuracy,
		MeanAbsoluteError: forecast.MeanAbsoluteError,
		MeanSquaredError:  forecast.MeanSquaredError,
		Accurate:          forecast.IsAccurate(),
		NeedsRefresh:      forecast.NeedsRefresh(),
		TotalHorizonHours: forecast.Period.TotalForecastHours(),
		DataPoints:        points,
		CreatedAt:         forecast.CreatedAt,
	}
}

// ToForecastDTOs converts a slice of domain forecasts to DTOs
func ToForecastDTOs(forecasts []*domain.DemandForecast) []ForecastDTO {
	dtos := make([]ForecastDTO, 0, len(forecasts))
	for _, f := range forecasts {
		if dto := ToForecastDTO(f); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}

// ToPlanDTO converts a domain plan to a DTO
func ToPlanDTO(plan *domain.WorkloadPlan) *PlanDTO {
	if plan == nil {
		return nil
	}

	volumes := make(map[string]int, len(plan.PlannedVolumes))
	for category, volume := range plan.PlannedVolumes {
		volumes[category.String()] = volume
	}

	shifts := make(map[string][]ShiftAssignmentDTO, len(plan.ShiftAssignments))
	for shift, assignments := range plan.ShiftAssignments {
		records := make([]ShiftAssignmentDTO, 0, len(assignments))
		for _, a := range assignments {
			records = append(records, ShiftAssignmentDTO{
				WorkerID:        a.WorkerID,
				WorkerName:      a.WorkerName,
				PrimaryCategory: a.PrimaryCategory.String(),
				PlannedHours:    a.PlannedHours,
			})
		}
		shifts[shift.String()] = records
	}

	return &PlanDTO{
		PlanID:                   plan.PlanID,
		WarehouseID:              plan.WarehouseID,
		PlanDate:                 plan.PlanDate.Format(time.DateOnly),
		PlannedVolumes:           volumes,
		ShiftAssignments:         shifts,
		TotalRequiredLaborHours:  plan.TotalRequiredLaborHours,
		TotalAvailableLaborHours: plan.TotalAvailableLaborHours,
		TotalWorkersAssigned:     plan.TotalWorkersAssigned(),
		UtilizationPercentage:    plan.UtilizationPercentage,
		EstimatedLaborCost:       plan.EstimatedLaborCost,
		StaffingStatus:           plan.StaffingStatus(),
		Status:                   string(plan.Status),
		Notes:                    plan.Notes,
		CreatedAt:                plan.CreatedAt,
		UpdatedAt:                plan.UpdatedAt,
	}
}

// ToPlanDTOs converts a slice of domain plans to DTOs
func ToPlanDTOs(plans []*domain.WorkloadPlan) []PlanDTO {
	dtos := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		if dto := ToPlanDTO(p); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}

// ToAllocationDTO converts an allocation result and the mutated plan to a DTO
func ToAllocationDTO(plan *domain.WorkloadPlan, result *domain.AllocationResult) *AllocationDTO {
	items := make([]AllocationItem, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		items = append(items, AllocationItem{
			WorkerID: a.WorkerID,
			Shift:    a.Shift.String(),
			Category: a.Category.String(),
			Hours:    a.Hours,
		})
	}

	remaining := make(map[string]int, len(result.RemainingDemand))
	for category, count := range result.RemainingDemand {
		remaining[category.String()] = count
	}

	skipped := result.SkippedWorkers
	if skipped == nil {
		skipped = []string{}
	}

	return &AllocationDTO{
		Plan:            *ToPlanDTO(plan),
		Assignments:     items,
		SkippedWorkers:  skipped,
		RemainingDemand: remaining,
	}
}
