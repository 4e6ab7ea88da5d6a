package domain

import (
	"fmt"
	"math"
	"time"
)

// AverageHourlyRate is the flat labor cost used for plan cost estimates
const AverageHourlyRate = 25.0

// Staffing thresholds, applied to UtilizationPercentage (required x 100 / available).
const (
	UnderstaffedBelow = 85.0
	OverstaffedAbove  = 110.0
)

// PlanStatus represents the lifecycle state of a workload plan
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "DRAFT"
	PlanStatusApproved  PlanStatus = "APPROVED"
	PlanStatusPublished PlanStatus = "PUBLISHED"
	PlanStatusCancelled PlanStatus = "CANCELLED"
)

// Staffing classifications of a plan
const (
	StaffingUnderstaffed = "UNDERSTAFFED"
	StaffingOverstaffed  = "OVERSTAFFED"
	StaffingBalanced     = "BALANCED"
)

// ShiftAssignment is one worker booked on a shift for a category
type ShiftAssignment struct {
	WorkerID        string           `json:"workerId" bson:"workerId"`
	WorkerName      string           `json:"workerName" bson:"workerName"`
	PrimaryCategory WorkloadCategory `json:"primaryCategory" bson:"primaryCategory"`
	PlannedHours    int              `json:"plannedHours" bson:"plannedHours"`
}

// WorkloadPlan is the aggregate root tracking planned volume against assigned labor
// for one warehouse-day. The four capacity metrics are recomputed by every mutator.
type WorkloadPlan struct {
	PlanID                   string                          `json:"planId" bson:"_id"`
	WarehouseID              string                          `json:"warehouseId" bson:"warehouseId"`
	PlanDate                 time.Time                       `json:"planDate" bson:"planDate"`
	CreatedAt                time.Time                       `json:"createdAt" bson:"createdAt"`
	UpdatedAt                time.Time                       `json:"updatedAt" bson:"updatedAt"`
	PlannedVolumes           map[WorkloadCategory]int        `json:"plannedVolumes" bson:"plannedVolumes"`
	ShiftAssignments         map[ShiftType][]ShiftAssignment `json:"shiftAssignments" bson:"shiftAssignments"`
	TotalRequiredLaborHours  int                             `json:"totalRequiredLaborHours" bson:"totalRequiredLaborHours"`
	TotalAvailableLaborHours int                             `json:"totalAvailableLaborHours" bson:"totalAvailableLaborHours"`
	UtilizationPercentage    float64                         `json:"utilizationPercentage" bson:"utilizationPercentage"`
	EstimatedLaborCost       float64                         `json:"estimatedLaborCost" bson:"estimatedLaborCost"`
	Status                   PlanStatus                      `json:"status" bson:"status"`
	Notes                    string                          `json:"notes,omitempty" bson:"notes,omitempty"`
}

// NewWorkloadPlan creates a DRAFT plan with zeroed metrics
func NewWorkloadPlan(planID, warehouseID string, planDate time.Time) (*WorkloadPlan, error) {
	if planID == "" {
		return nil, fmt.Errorf("%w: planId", ErrMissingIdentifier)
	}
	if warehouseID == "" {
		return nil, fmt.Errorf("%w: warehouseId", ErrMissingIdentifier)
	}
	if planDate.IsZero() {
		return nil, ErrMissingPlanDate
	}

	now := time.Now().UTC()
	return &WorkloadPlan{
		PlanID:           planID,
		WarehouseID:      warehouseID,
		PlanDate:         NormalizePlanDate(planDate),
		CreatedAt:        now,
		UpdatedAt:        now,
		PlannedVolumes:   make(map[WorkloadCategory]int),
		ShiftAssignments: make(map[ShiftType][]ShiftAssignment),
		Status:           PlanStatusDraft,
	}, nil
}

// NormalizePlanDate truncates t to midnight UTC of its calendar day
func NormalizePlanDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SetPlannedVolume upserts the volume of a category
func (p *WorkloadPlan) SetPlannedVolume(category WorkloadCategory, volume int) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if volume < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeVolume, volume)
	}

	if p.PlannedVolumes == nil {
		p.PlannedVolumes = make(map[WorkloadCategory]int)
	}
	p.PlannedVolumes[category] = volume
	p.touch()
	return nil
}

// AssignWorkerToShift appends an assignment record. The same worker may be booked more than once.
func (p *WorkloadPlan) AssignWorkerToShift(shift ShiftType, workerID, workerName string, category WorkloadCategory, plannedHours int) error {
	if !shift.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidShift, shift)
	}
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if workerID == "" {
		return fmt.Errorf("%w: workerId", ErrMissingIdentifier)
	}
	if plannedHours <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPlannedHours, plannedHours)
	}

	if p.ShiftAssignments == nil {
		p.ShiftAssignments = make(map[ShiftType][]ShiftAssignment)
	}
	p.ShiftAssignments[shift] = append(p.ShiftAssignments[shift], ShiftAssignment{
		WorkerID:        workerID,
		WorkerName:      workerName,
		PrimaryCategory: category,
		PlannedHours:    plannedHours,
	})
	p.touch()
	return nil
}

// RemoveWorkerFromShift drops every record of workerID on shift and reports whether any matched
func (p *WorkloadPlan) RemoveWorkerFromShift(shift ShiftType, workerID string) bool {
	assignments, ok := p.ShiftAssignments[shift]
	if !ok {
		return false
	}

	kept := make([]ShiftAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.WorkerID != workerID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(assignments) {
		return false
	}

	if len(kept) == 0 {
		delete(p.ShiftAssignments, shift)
	} else {
		p.ShiftAssignments[shift] = kept
	}
	p.touch()
	return true
}

// Approve moves a DRAFT plan to APPROVED
func (p *WorkloadPlan) Approve() error {
	if p.Status != PlanStatusDraft {
		return &TransitionError{From: p.Status, To: PlanStatusApproved, Message: "Only draft plans can be approved"}
	}
	p.Status = PlanStatusApproved
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Publish moves an APPROVED plan to PUBLISHED
func (p *WorkloadPlan) Publish() error {
	if p.Status != PlanStatusApproved {
		return &TransitionError{From: p.Status, To: PlanStatusPublished, Message: "Only approved plans can be published"}
	}
	p.Status = PlanStatusPublished
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves the plan to CANCELLED from any status and overwrites the notes with reason
func (p *WorkloadPlan) Cancel(reason string) {
	p.Status = PlanStatusCancelled
	p.Notes = reason
	p.UpdatedAt = time.Now().UTC()
}

// AssignmentsFor returns a copy of the records on shift
func (p *WorkloadPlan) AssignmentsFor(shift ShiftType) []ShiftAssignment {
	out := make([]ShiftAssignment, len(p.ShiftAssignments[shift]))
	copy(out, p.ShiftAssignments[shift])
	return out
}

// TotalWorkersAssigned counts assignment records across all shifts
func (p *WorkloadPlan) TotalWorkersAssigned() int {
	total := 0
	for _, assignments := range p.ShiftAssignments {
		total += len(assignments)
	}
	return total
}

// TotalHoursForShift sums planned hours on shift
func (p *WorkloadPlan) TotalHoursForShift(shift ShiftType) int {
	total := 0
	for _, a := range p.ShiftAssignments[shift] {
		total += a.PlannedHours
	}
	return total
}

// HasWorker reports whether workerID holds an assignment on any shift
func (p *WorkloadPlan) HasWorker(workerID string) bool {
	for _, assignments := range p.ShiftAssignments {
		for _, a := range assignments {
			if a.WorkerID == workerID {
				return true
			}
		}
	}
	return false
}

// WorkersForCategory counts assignment records whose primary category is category
func (p *WorkloadPlan) WorkersForCategory(category WorkloadCategory) int {
	total := 0
	for _, assignments := range p.ShiftAssignments {
		for _, a := range assignments {
			if a.PrimaryCategory == category {
				total++
			}
		}
	}
	return total
}

// CalculateRequiredLaborHours sums ceil(volume / standard rate) over categories
func (p *WorkloadPlan) CalculateRequiredLaborHours() int {
	total := 0
	for category, volume := range p.PlannedVolumes {
		total += int(math.Ceil(category.CalculateLaborHours(volume)))
	}
	return total
}

func (p *WorkloadPlan) IsUnderstaffed() bool {
	return p.UtilizationPercentage < UnderstaffedBelow
}

func (p *WorkloadPlan) IsOverstaffed() bool {
	return p.UtilizationPercentage > OverstaffedAbove
}

func (p *WorkloadPlan) IsBalanced() bool {
	return p.UtilizationPercentage >= UnderstaffedBelow && p.UtilizationPercentage <= OverstaffedAbove
}

// StaffingStatus classifies the plan as UNDERSTAFFED, OVERSTAFFED or BALANCED
func (p *WorkloadPlan) StaffingStatus() string {
	switch {
	case p.IsUnderstaffed():
		return StaffingUnderstaffed
	case p.IsOverstaffed():
		return StaffingOverstaffed
	default:
		return StaffingBalanced
	}
}

func (p *WorkloadPlan) touch() {
	p.recalculateMetrics()
	p.UpdatedAt = time.Now().UTC()
}

func (p *WorkloadPlan) recalculateMetrics() {
	p.TotalRequiredLaborHours = p.CalculateRequiredLaborHours()

	available := 0
	for _, assignments := range p.ShiftAssignments {
		for _, a := range assignments {
			available += a.PlannedHours
		}
	}
	p.TotalAvailableLaborHours = available

	if available > 0 {
		p.UtilizationPercentage = float64(p.TotalRequiredLaborHours) * 100.0 / float64(available)
	} else {
		p.UtilizationPercentage = 0
	}

	p.EstimatedLaborCost = float64(available) * AverageHourlyRate
}

func (p *WorkloadPlan) String() string {
	return fmt.Sprintf("WorkloadPlan[id=%s, date=%s, status=%s, workers=%d, util=%.1f%%]",
		p.PlanID, p.PlanDate.Format("2006-01-02"), p.Status, p.TotalWorkersAssigned(), p.UtilizationPercentage)
}
