package application

import "time"

// ForecastDTO represents a demand forecast in responses
type ForecastDTO struct {
	ForecastID        string             `json:"forecastId"`
	WarehouseID       string             `json:"warehouseId"`
	Period            string             `json:"period"`
	ForecastDate      time.Time          `json:"forecastDate"`
	ForecastingModel  string             `json:"forecastingModel"`
	ModelParameters   map[string]float64 `json:"modelParameters"`
	Accuracy          *float64           `json:"accuracy,omitempty"`
	MeanAbsoluteError *float64           `json:"meanAbsoluteError,omitempty"`
	MeanSquaredError  *float64           `json:"meanSquaredError,omitempty"`
	Accurate          bool               `json:"accurate"`
	NeedsRefresh      bool               `json:"needsRefresh"`
	TotalHorizonHours int                `json:"totalHorizonHours"`
	DataPoints        []DataPointDTO     `json:"dataPoints"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// DataPointDTO represents a single forecast observation
type DataPointDTO struct {
	Timestamp          time.Time `json:"timestamp"`
	Category           string    `json:"category"`
	ForecastedVolume   int       `json:"forecastedVolume"`
	ConfidenceInterval float64   `json:"confidenceInterval"`
}

// PlanDTO represents a workload plan in responses
type PlanDTO struct {
	PlanID                   string                          `json:"planId"`
	WarehouseID              string                          `json:"warehouseId"`
	PlanDate                 string                          `json:"planDate"`
	PlannedVolumes           map[string]int                  `json:"plannedVolumes"`
	ShiftAssignments         map[string][]ShiftAssignmentDTO `json:"shiftAssignments"`
	TotalRequiredLaborHours  int                             `json:"totalRequiredLaborHours"`
	TotalAvailableLaborHours int                             `json:"totalAvailableLaborHours"`
	TotalWorkersAssigned     int                             `json:"totalWorkersAssigned"`
	UtilizationPercentage    float64                         `json:"utilizationPercentage"`
	EstimatedLaborCost       float64                         `json:"estimatedLaborCost"`
	StaffingStatus           string                          `json:"staffingStatus"`
	Status                   string                          `json:"status"`
	Notes                    string                          `json:"notes,omitempty"`
	CreatedAt                time.Time                       `json:"createdAt"`
	UpdatedAt                time.Time                       `json:"updatedAt"`
}

// ShiftAssignmentDTO represents one worker's hours on a shift
type ShiftAssignmentDTO struct {
	WorkerID        string `json:"workerId"`
	WorkerName      string `json:"workerName"`
	PrimaryCategory string `json:"primaryCategory"`
	PlannedHours    int    `json:"plannedHours"`
}

// AllocationDTO reports the outcome of an optimization run
type AllocationDTO struct {
	Plan            PlanDTO          `json:"plan"`
	Assignments     []AllocationItem `json:"assignments"`
	SkippedWorkers  []string         `json:"skippedWorkers"`
	RemainingDemand map[string]int   `json:"remainingDemand"`
}

// AllocationItem is a single assignment made by the optimizer
type AllocationItem struct {
	WorkerID string `json:"workerId"`
	Shift    string `json:"shift"`
	Category string `json:"category"`
	Hours    int    `json:"hours"`
}

// RecommendationsDTO combines the latest forecast and the current plan for a warehouse-day
type RecommendationsDTO struct {
	WarehouseID     string       `json:"warehouseId"`
	Date            string       `json:"date"`
	Recommendations []string     `json:"recommendations"`
	LatestForecast  *ForecastDTO `json:"latestForecast,omitempty"`
	CurrentPlan     *PlanDTO     `json:"currentPlan,omitempty"`
}

// StaffingBreakdownDTO reports staffing requirements derived from a forecast
type StaffingBreakdownDTO struct {
	WarehouseID          string                         `json:"warehouseId"`
	ForecastID           string                         `json:"forecastId"`
	PlanID               string                         `json:"planId,omitempty"`
	Categories           map[string]CategoryStaffingDTO `json:"categoryRecommendations"`
	Shifts               map[string]ShiftStaffingDTO    `json:"shiftRecommendations"`
	ProjectedUtilization float64                        `json:"projectedUtilization"`
	BalanceStatus        string                         `json:"balanceStatus"`
	Warnings             []string                       `json:"warnings"`
	Suggestions          []string                       `json:"suggestions"`
}

// CategoryStaffingDTO is the staffing need of one category
type CategoryStaffingDTO struct {
	Category           string  `json:"category"`
	ForecastedVolume   int     `json:"forecastedVolume"`
	RequiredWorkers    int     `json:"requiredWorkers"`
	CurrentWorkers     int     `json:"currentWorkers"`
	Gap                int     `json:"gap"`
	RequiredLaborHours float64 `json:"requiredLaborHours"`
}

// ShiftStaffingDTO is the staffing need of one shift
type ShiftStaffingDTO struct {
	Shift                 string  `json:"shift"`
	RequiredWorkers       int     `json:"requiredWorkers"`
	CurrentWorkers        int     `json:"currentWorkers"`
	Gap                   int     `json:"gap"`
	UtilizationPercentage float64 `json:"utilizationPercentage"`
}
