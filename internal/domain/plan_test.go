package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlan(t *testing.T) *WorkloadPlan {
	t.Helper()
	plan, err := NewWorkloadPlan("PLAN-001", "WH-1", time.Date(2026, 10, 15, 13, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	return plan
}

func assertMetricsConsistent(t *testing.T, plan *WorkloadPlan) {
	t.Helper()
	available := 0
	for _, shift := range ShiftTypes() {
		available += plan.TotalHoursForShift(shift)
	}
	assert.Equal(t, available, plan.TotalAvailableLaborHours)
	assert.Equal(t, plan.CalculateRequiredLaborHours(), plan.TotalRequiredLaborHours)
	assert.Equal(t, float64(available)*AverageHourlyRate, plan.EstimatedLaborCost)
}

func TestNewWorkloadPlan(t *testing.T) {
	plan := newTestPlan(t)

	assert.Equal(t, PlanStatusDraft, plan.Status)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), plan.PlanDate)
	assert.Zero(t, plan.TotalRequiredLaborHours)
	assert.Zero(t, plan.TotalAvailableLaborHours)
	assert.Zero(t, plan.UtilizationPercentage)
	assert.Zero(t, plan.EstimatedLaborCost)

	_, err := NewWorkloadPlan("", "WH-1", time.Now())
	assert.True(t, errors.Is(err, ErrMissingIdentifier))
	_, err = NewWorkloadPlan("P", "WH-1", time.Time{})
	assert.True(t, errors.Is(err, ErrMissingPlanDate))
}

func TestWorkloadPlanStaffingScenario(t *testing.T) {
	plan := newTestPlan(t)

	require.NoError(t, plan.SetPlannedVolume(CategoryPicking, 200))
	require.NoError(t, plan.SetPlannedVolume(CategoryPacking, 100))
	assert.Equal(t, 13, plan.TotalRequiredLaborHours)

	require.NoError(t, plan.AssignWorkerToShift(ShiftDay, "W-1", "Ana", CategoryPicking, 8))
	require.NoError(t, plan.AssignWorkerToShift(ShiftEvening, "W-2", "Ben", CategoryPacking, 8))

	assert.Equal(t, 16, plan.TotalAvailableLaborHours)
	assert.InDelta(t, 81.25, plan.UtilizationPercentage, 1e-9)
	assert.Equal(t, 400.0, plan.EstimatedLaborCost)
	assert.True(t, plan.IsUnderstaffed())
	assert.False(t, plan.IsOverstaffed())
	assert.False(t, plan.IsBalanced())
	assert.Equal(t, StaffingUnderstaffed, plan.StaffingStatus())
	assert.Equal(t, 2, plan.TotalWorkersAssigned())
	assertMetricsConsistent(t, plan)
}

func TestWorkloadPlanRequiredHoursRoundsUpPerCategory(t *testing.T) {
	plan := newTestPlan(t)
	require.NoError(t, plan.SetPlannedVolume(CategoryPicking, 26))  // 1.04h -> 2
	require.NoError(t, plan.SetPlannedVolume(CategoryReturns, 1))   // 0.125h -> 1
	require.NoError(t, plan.SetPlannedVolume(CategoryReceiving, 0)) // 0

	assert.Equal(t, 3, plan.TotalRequiredLaborHours)

	require.NoError(t, plan.SetPlannedVolume(CategoryPicking, 25))
	assert.Equal(t, 2, plan.TotalRequiredLaborHours, "upsert replaces the previous volume")
}

func TestWorkloadPlanSetPlannedVolumeRejectsInvalidInput(t *testing.T) {
	plan := newTestPlan(t)

	err := plan.SetPlannedVolume(CategoryPicking, -5)
	assert.True(t, errors.Is(err, ErrNegativeVolume))

	err = plan.SetPlannedVolume(WorkloadCategory("SWEEPING"), 5)
	assert.True(t, errors.Is(err, ErrInvalidCategory))

	assert.Empty(t, plan.PlannedVolumes)
}

func TestWorkloadPlanAssignWorker(t *testing.T) {
	tests := []struct {
		name     string
		shift    ShiftType
		workerID string
		category WorkloadCategory
		hours    int
		want     error
	}{
		{"unknown shift", ShiftType("LUNCH"), "W-1", CategoryPicking, 8, ErrInvalidShift},
		{"unknown category", ShiftDay, "W-1", WorkloadCategory("X"), 8, ErrInvalidCategory},
		{"missing worker", ShiftDay, "", CategoryPicking, 8, ErrMissingIdentifier},
		{"zero hours", ShiftDay, "W-1", CategoryPicking, 0, ErrInvalidPlannedHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := newTestPlan(t)
			err := plan.AssignWorkerToShift(tt.shift, tt.workerID, "Ana", tt.category, tt.hours)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Zero(t, plan.TotalWorkersAssigned())
		})
	}
}

func TestWorkloadPlanAssignSameWorkerTwice(t *testing.T) {
	plan := newTestPlan(t)
	require.NoError(t, plan.AssignWorkerToShift(ShiftDay, "W-1", "Ana", CategoryPicking, 4))
	require.NoError(t, plan.AssignWorkerToShift(ShiftDay, "W-1", "Ana", CategoryPacking, 4))

	assert.Equal(t, 2, plan.TotalWorkersAssigned())
	assert.Equal(t, 8, plan.TotalHoursForShift(ShiftDay))
	assert.Len(t, plan.AssignmentsFor(ShiftDay), 2)
	assertMetricsConsistent(t, plan)
}

func TestWorkloadPlanHasWorker(t *testing.T) {
	plan := newTestPlan(t)
	assert.False(t, plan.HasWorker("W-1"))

	require.NoError(t, plan.AssignWorkerToShift(ShiftNight, "W-1", "Ana", CategoryPicking, 8))
	assert.True(t, plan.HasWorker("W-1"))
	assert.False(t, plan.HasWorker("W-2"))

	plan.RemoveWorkerFromShift(ShiftNight, "W-1")
	assert.False(t, plan.HasWorker("W-1"))
}

func TestWorkloadPlanRemoveWorker(t *testing.T) {
	plan := newTestPlan(t)
	require.NoError(t, plan.SetPlannedVolume(CategoryPicking, 400))
	require.NoError(t, plan.AssignWorkerToShift(ShiftDay, "W-1", "Ana", CategoryPicking, 4))
	require.NoError(t, plan.AssignWorkerToShift(ShiftDay, "W-1", "Ana", CategoryPacking, 4))
	require.NoError(t, plan.AssignWorkerToShift(ShiftDay, "W-2", "Ben", CategoryPicking, 8))
	require.NoError(t, plan.AssignWorkerToShift(ShiftNight, "W-1", "Ana", CategoryPicking, 8))

	assert.True(t, plan.RemoveWorkerFromShift(ShiftDay, "W-1"))
	assert.Equal(t, 8, plan.TotalHoursForShift(ShiftDay))
	assert.Equal(t, 16, plan.TotalAvailableLaborHours)
	assert.Equal(t, 2, plan.TotalWorkersAssigned())
	assertMetricsConsistent(t, plan)

	snapshot := *plan
	assert.False(t, plan.RemoveWorkerFromShift(ShiftDay, "W-1"), "second removal is a no-op")
	assert.Equal(t, snapshot.UpdatedAt, plan.UpdatedAt)
	assert.Equal(t, snapshot.TotalAvailableLaborHours, plan.TotalAvailableLaborHours)
	assert.Equal(t, snapshot.UtilizationPercentage, plan.UtilizationPercentage)

	assert.False(t, plan.RemoveWorkerFromShift(ShiftEvening, "W-1"))
	assert.True(t, plan.RemoveWorkerFromShift(ShiftNight, "W-1"))
	assert.Empty(t, plan.AssignmentsFor(ShiftNight))
	assertMetricsConsistent(t, plan)
}

func TestWorkloadPlanStatusMachine(t *testing.T) {
	t.Run("approve twice fails", func(t *testing.T) {
		plan := newTestPlan(t)
		require.NoError(t, plan.Approve())
		assert.Equal(t, PlanStatusApproved, plan.Status)

		err := plan.Approve()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
		assert.Equal(t, "Only draft plans can be approved", err.Error())
		assert.Equal(t, PlanStatusApproved, plan.Status)
	})

	t.Run("publish before approve fails", func(t *testing.T) {
		plan := newTestPlan(t)
		err := plan.Publish()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
		assert.Equal(t, PlanStatusDraft, plan.Status)
	})

	t.Run("approve then publish", func(t *testing.T) {
		plan := newTestPlan(t)
		require.NoError(t, plan.Approve())
		require.NoError(t, plan.Publish())
		assert.Equal(t, PlanStatusPublished, plan.Status)

		var transitionErr *TransitionError
		require.True(t, errors.As(plan.Approve(), &transitionErr))
		assert.Equal(t, PlanStatusPublished, transitionErr.From)
		assert.Equal(t, PlanStatusApproved, transitionErr.To)
	})

	setups := map[string]func(p *WorkloadPlan){
		"DRAFT":     func(p *WorkloadPlan) {},
		"APPROVED":  func(p *WorkloadPlan) { _ = p.Approve() },
		"PUBLISHED": func(p *WorkloadPlan) { _ = p.Approve(); _ = p.Publish() },
		"CANCELLED": func(p *WorkloadPlan) { p.Cancel("first") },
	}
	for from, setup := range setups {
		t.Run("cancel from "+from, func(t *testing.T) {
			plan := newTestPlan(t)
			plan.Notes = "original notes"
			setup(plan)

			plan.Cancel("demand collapsed")
			assert.Equal(t, PlanStatusCancelled, plan.Status)
			assert.Equal(t, "demand collapsed", plan.Notes)
		})
	}
}

func TestWorkloadPlanStaffingClassification(t *testing.T) {
	tests := []struct {
		utilization float64
		want        string
	}{
		{0, StaffingUnderstaffed},
		{84.99, StaffingUnderstaffed},
		{85, StaffingBalanced},
		{100, StaffingBalanced},
		{110, StaffingBalanced},
		{110.01, StaffingOverstaffed},
	}

	for _, tt := range tests {
		plan := newTestPlan(t)
		plan.UtilizationPercentage = tt.utilization
		assert.Equal(t, tt.want, plan.StaffingStatus(), "utilization %.2f", tt.utilization)
		assert.Equal(t, tt.want == StaffingBalanced, plan.IsBalanced())
	}
}
