package domain

import (
	"strconv"
	"time"
)

// Planning event types
const (
	EventForecastGenerated = "workload.forecast.generated"
	EventPlanCreated       = "workload.plan.created"
	EventWorkerAssigned    = "workload.worker.assigned"
	EventWorkerRemoved     = "workload.worker.removed"
	EventPlanOptimized     = "workload.plan.optimized"
	EventPlanApproved      = "workload.plan.approved"
	EventPlanPublished     = "workload.plan.published"
	EventPlanCancelled     = "workload.plan.cancelled"
)

// PlanningEvent is a fire-and-forget notification about a forecast or plan.
// Fields is flat and string valued.
type PlanningEvent struct {
	Type       string            `json:"type"`
	SubjectID  string            `json:"subjectId"`
	Fields     map[string]string `json:"fields"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// NewPlanningEvent stamps an event with the current time
func NewPlanningEvent(eventType, subjectID string, fields map[string]string) PlanningEvent {
	return PlanningEvent{
		Type:       eventType,
		SubjectID:  subjectID,
		Fields:     fields,
		OccurredAt: time.Now().UTC(),
	}
}

// AggregateType returns "DemandForecast" or "WorkloadPlan" depending on the event type
func (e PlanningEvent) AggregateType() string {
	if e.Type == EventForecastGenerated {
		return "DemandForecast"
	}
	return "WorkloadPlan"
}

func ForecastGeneratedEvent(f *DemandForecast) PlanningEvent {
	accuracy := 0.0
	if f.Accuracy != nil {
		accuracy = *f.Accuracy
	}
	return NewPlanningEvent(EventForecastGenerated, f.ForecastID, map[string]string{
		"forecastId":       f.ForecastID,
		"warehouseId":      f.WarehouseID,
		"period":           string(f.Period),
		"forecastingModel": f.ForecastingModel,
		"accuracy":         formatFloat(accuracy),
	})
}

func PlanCreatedEvent(p *WorkloadPlan) PlanningEvent {
	return NewPlanningEvent(EventPlanCreated, p.PlanID, map[string]string{
		"planId":             p.PlanID,
		"warehouseId":        p.WarehouseID,
		"planDate":           p.PlanDate.Format(time.DateOnly),
		"totalRequiredHours": strconv.Itoa(p.TotalRequiredLaborHours),
	})
}

func WorkerAssignedEvent(p *WorkloadPlan, shift ShiftType, a ShiftAssignment) PlanningEvent {
	return NewPlanningEvent(EventWorkerAssigned, p.PlanID, map[string]string{
		"planId":       p.PlanID,
		"workerId":     a.WorkerID,
		"workerName":   a.WorkerName,
		"shift":        string(shift),
		"category":     string(a.PrimaryCategory),
		"plannedHours": strconv.Itoa(a.PlannedHours),
	})
}

func WorkerRemovedEvent(p *WorkloadPlan, shift ShiftType, workerID string) PlanningEvent {
	return NewPlanningEvent(EventWorkerRemoved, p.PlanID, map[string]string{
		"planId":   p.PlanID,
		"workerId": workerID,
		"shift":    string(shift),
	})
}

func PlanOptimizedEvent(p *WorkloadPlan, assigned int) PlanningEvent {
	return NewPlanningEvent(EventPlanOptimized, p.PlanID, map[string]string{
		"planId":          p.PlanID,
		"warehouseId":     p.WarehouseID,
		"assignedWorkers": strconv.Itoa(assigned),
		"utilization":     formatFloat(p.UtilizationPercentage),
	})
}

func PlanApprovedEvent(p *WorkloadPlan, approvedBy string) PlanningEvent {
	return NewPlanningEvent(EventPlanApproved, p.PlanID, map[string]string{
		"planId":       p.PlanID,
		"warehouseId":  p.WarehouseID,
		"approvedBy":   approvedBy,
		"totalWorkers": strconv.Itoa(p.TotalWorkersAssigned()),
		"utilization":  formatFloat(p.UtilizationPercentage),
	})
}

func PlanPublishedEvent(p *WorkloadPlan) PlanningEvent {
	return NewPlanningEvent(EventPlanPublished, p.PlanID, map[string]string{
		"planId":       p.PlanID,
		"warehouseId":  p.WarehouseID,
		"planDate":     p.PlanDate.Format(time.DateOnly),
		"totalWorkers": strconv.Itoa(p.TotalWorkersAssigned()),
	})
}

func PlanCancelledEvent(p *WorkloadPlan, reason string) PlanningEvent {
	return NewPlanningEvent(EventPlanCancelled, p.PlanID, map[string]string{
		"planId":      p.PlanID,
		"warehouseId": p.WarehouseID,
		"reason":      reason,
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
