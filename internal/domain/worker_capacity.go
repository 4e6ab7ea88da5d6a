package domain

import "fmt"

// WorkerCapacity describes one worker's skills and productivity for allocation
type WorkerCapacity struct {
	WorkerID          string                       `json:"workerId" bson:"workerId"`
	Name              string                       `json:"name" bson:"name"`
	SkillLevel        SkillLevel                   `json:"skillLevel" bson:"skillLevel"`
	ProductivityRates map[WorkloadCategory]float64 `json:"productivityRates,omitempty" bson:"productivityRates,omitempty"`
	MaxHoursPerWeek   int                          `json:"maxHoursPerWeek" bson:"maxHoursPerWeek"`
	FullTime          bool                         `json:"fullTime" bson:"fullTime"`
	HourlyRate        float64                      `json:"hourlyRate" bson:"hourlyRate"`
}

// NewWorkerCapacity creates a worker with no per-category overrides
func NewWorkerCapacity(workerID, name string, skill SkillLevel, maxHoursPerWeek int, fullTime bool, hourlyRate float64) (*WorkerCapacity, error) {
	if workerID == "" {
		return nil, fmt.Errorf("%w: workerId", ErrMissingIdentifier)
	}
	if !skill.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSkillLevel, skill)
	}

	return &WorkerCapacity{
		WorkerID:          workerID,
		Name:              name,
		SkillLevel:        skill,
		ProductivityRates: make(map[WorkloadCategory]float64),
		MaxHoursPerWeek:   maxHoursPerWeek,
		FullTime:          fullTime,
		HourlyRate:        hourlyRate,
	}, nil
}

// SetProductivityRate records a per-category override. An override also makes the
// worker eligible for that category.
func (w *WorkerCapacity) SetProductivityRate(category WorkloadCategory, rate float64) {
	if w.ProductivityRates == nil {
		w.ProductivityRates = make(map[WorkloadCategory]float64)
	}
	w.ProductivityRates[category] = rate
}

// EffectiveProductivityRate returns (override or standard rate) scaled by skill
func (w *WorkerCapacity) EffectiveProductivityRate(category WorkloadCategory) float64 {
	base, ok := w.ProductivityRates[category]
	if !ok {
		base = category.StandardRate()
	}
	return w.SkillLevel.EffectiveRate(base)
}

// CalculateOutput returns the units produced in hours of work on category
func (w *WorkerCapacity) CalculateOutput(category WorkloadCategory, hours float64) float64 {
	return w.EffectiveProductivityRate(category) * hours
}

// CalculateLaborCost returns hours x hourly rate x shift premium
func (w *WorkerCapacity) CalculateLaborCost(hours, premiumMultiplier float64) float64 {
	return hours * w.HourlyRate * premiumMultiplier
}

// CanPerform reports whether the worker may be assigned to category
func (w *WorkerCapacity) CanPerform(category WorkloadCategory) bool {
	if _, ok := w.ProductivityRates[category]; ok {
		return true
	}
	return category.IsCoreOperation() && w.SkillLevel != SkillTrainee
}

// Validate checks the fields the allocation engine depends on
func (w *WorkerCapacity) Validate() error {
	if w.WorkerID == "" {
		return fmt.Errorf("%w: workerId", ErrMissingIdentifier)
	}
	if !w.SkillLevel.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSkillLevel, w.SkillLevel)
	}
	for category := range w.ProductivityRates {
		if !category.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
		}
	}
	return nil
}

func (w *WorkerCapacity) String() string {
	return fmt.Sprintf("WorkerCapacity[id=%s, name=%s, skill=%s, fullTime=%t]", w.WorkerID, w.Name, w.SkillLevel, w.FullTime)
}
