package domain

import (
	"fmt"
	"sort"
)

// StandardShiftHours is the shift length assumed by greedy allocation
const StandardShiftHours = 8

// allocationShifts are the only shifts the engine fills, in tie-break order.
var allocationShifts = []ShiftType{ShiftDay, ShiftEvening, ShiftNight}

// Allocation records one assignment made by the engine
type Allocation struct {
	WorkerID string           `json:"workerId"`
	Shift    ShiftType        `json:"shift"`
	Category WorkloadCategory `json:"category"`
	Hours    int              `json:"hours"`
}

// AllocationResult summarises a greedy allocation pass
type AllocationResult struct {
	Assignments     []Allocation             `json:"assignments"`
	SkippedWorkers  []string                 `json:"skippedWorkers"`
	RemainingDemand map[WorkloadCategory]int `json:"remainingDemand"`
	RequiredWorkers map[WorkloadCategory]int `json:"requiredWorkers"`
}

// AllocationEngine assigns available workers to shifts with a single greedy pass.
// It holds no state; concurrent calls are safe on distinct plans.
type AllocationEngine struct{}

// NewAllocationEngine creates an AllocationEngine
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// Allocate mutates plan with new assignments for workers and returns what it did.
//
// Workers are visited highest skill rank first (stable for equal ranks). Each one takes the
// eligible category with the largest outstanding worker requirement, enumeration order breaking
// ties, on the least-loaded of DAY, EVENING and NIGHT. Workers with no eligible category are skipped.
func (e *AllocationEngine) Allocate(plan *WorkloadPlan, workers []WorkerCapacity) (*AllocationResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: plan", ErrMissingIdentifier)
	}

	required := RequiredWorkers(plan)
	result := &AllocationResult{
		Assignments:     make([]Allocation, 0),
		SkippedWorkers:  make([]string, 0),
		RequiredWorkers: copyCounts(required),
	}

	ordered := make([]WorkerCapacity, len(workers))
	copy(ordered, workers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SkillLevel.Rank() > ordered[j].SkillLevel.Rank()
	})

	for i := range ordered {
		worker := &ordered[i]
		category, ok := bestCategory(worker, required)
		if !ok {
			result.SkippedWorkers = append(result.SkippedWorkers, worker.WorkerID)
			continue
		}

		shift := leastLoadedShift(plan)
		if err := plan.AssignWorkerToShift(shift, worker.WorkerID, worker.Name, category, StandardShiftHours); err != nil {
			return result, fmt.Errorf("assign worker %s: %w", worker.WorkerID, err)
		}
		if required[category] > 0 {
			required[category]--
		}

		result.Assignments = append(result.Assignments, Allocation{
			WorkerID: worker.WorkerID,
			Shift:    shift,
			Category: category,
			Hours:    StandardShiftHours,
		})
	}

	result.RemainingDemand = required
	return result, nil
}

// RequiredWorkers returns ceil(labor hours / 8) for every category with planned volume
func RequiredWorkers(plan *WorkloadPlan) map[WorkloadCategory]int {
	required := make(map[WorkloadCategory]int, len(plan.PlannedVolumes))
	for category, volume := range plan.PlannedVolumes {
		required[category] = category.CalculateRequiredWorkers(volume, StandardShiftHours)
	}
	return required
}

func bestCategory(worker *WorkerCapacity, required map[WorkloadCategory]int) (WorkloadCategory, bool) {
	var best WorkloadCategory
	bestNeed := 0
	for _, category := range workloadCategories {
		need := required[category]
		if need <= 0 || !worker.CanPerform(category) {
			continue
		}
		if need > bestNeed {
			best = category
			bestNeed = need
		}
	}
	return best, bestNeed > 0
}

func leastLoadedShift(plan *WorkloadPlan) ShiftType {
	best := allocationShifts[0]
	bestCount := len(plan.ShiftAssignments[best])
	for _, shift := range allocationShifts[1:] {
		if count := len(plan.ShiftAssignments[shift]); count < bestCount {
			best = shift
			bestCount = count
		}
	}
	return best
}

func copyCounts(in map[WorkloadCategory]int) map[WorkloadCategory]int {
	out := make(map[WorkloadCategory]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
