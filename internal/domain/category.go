package domain

import (
	"fmt"
	"math"
	"strings"
)

// WorkloadCategory is a classified type of warehouse work
type WorkloadCategory string

const (
	CategoryReceiving     WorkloadCategory = "RECEIVING"
	CategoryPicking       WorkloadCategory = "PICKING"
	CategoryPacking       WorkloadCategory = "PACKING"
	CategoryReplenishment WorkloadCategory = "REPLENISHMENT"
	CategoryCycleCounting WorkloadCategory = "CYCLE_COUNTING"
	CategoryReturns       WorkloadCategory = "RETURNS"
	CategoryValueAdded    WorkloadCategory = "VALUE_ADDED"
	CategoryMaintenance   WorkloadCategory = "MAINTENANCE"
)

type categoryProfile struct {
	description  string
	standardRate float64 // units per hour
	core         bool
}

// workloadCategories is the enumeration order used for tie-breaks.
var workloadCategories = []WorkloadCategory{
	CategoryReceiving,
	CategoryPicking,
	CategoryPacking,
	CategoryReplenishment,
	CategoryCycleCounting,
	CategoryReturns,
	CategoryValueAdded,
	CategoryMaintenance,
}

var categoryProfiles = map[WorkloadCategory]categoryProfile{
	CategoryReceiving:     {"Receiving and putaway", 15.0, true},
	CategoryPicking:       {"Order picking", 25.0, true},
	CategoryPacking:       {"Packing and shipping", 20.0, true},
	CategoryReplenishment: {"Stock replenishment", 10.0, true},
	CategoryCycleCounting: {"Cycle counting", 5.0, false},
	CategoryReturns:       {"Returns processing", 8.0, false},
	CategoryValueAdded:    {"Value-added services", 12.0, false},
	CategoryMaintenance:   {"Equipment maintenance", 5.0, false},
}

// WorkloadCategories returns every category in enumeration order
func WorkloadCategories() []WorkloadCategory {
	out := make([]WorkloadCategory, len(workloadCategories))
	copy(out, workloadCategories)
	return out
}

// ParseWorkloadCategory converts a string into a WorkloadCategory
func ParseWorkloadCategory(s string) (WorkloadCategory, error) {
	c := WorkloadCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// IsValid reports whether c is one of the known categories
func (c WorkloadCategory) IsValid() bool {
	_, ok := categoryProfiles[c]
	return ok
}

func (c WorkloadCategory) String() string {
	return string(c)
}

// Description returns a human readable label
func (c WorkloadCategory) Description() string {
	return categoryProfiles[c].description
}

// StandardRate returns the standard productivity rate in units per hour
func (c WorkloadCategory) StandardRate() float64 {
	return categoryProfiles[c].standardRate
}

// IsCoreOperation reports whether the category is a core warehouse flow
func (c WorkloadCategory) IsCoreOperation() bool {
	return categoryProfiles[c].core
}

// Ordinal returns the position of c in enumeration order, or -1 when unknown
func (c WorkloadCategory) Ordinal() int {
	for i, candidate := range workloadCategories {
		if candidate == c {
			return i
		}
	}
	return -1
}

// CalculateLaborHours returns volume / standard rate. A zero rate yields zero hours.
func (c WorkloadCategory) CalculateLaborHours(volume int) float64 {
	rate := c.StandardRate()
	if rate == 0 {
		return 0
	}
	return float64(volume) / rate
}

// CalculateRequiredWorkers returns the number of shifts of shiftHours needed to cover volume.
func (c WorkloadCategory) CalculateRequiredWorkers(volume, shiftHours int) int {
	if shiftHours <= 0 {
		return 0
	}
	return int(math.Ceil(c.CalculateLaborHours(volume) / float64(shiftHours)))
}
