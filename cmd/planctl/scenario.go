package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/internal/workflows"
)

const dateLayout = "2006-01-02"

// Scenario is a planning run described in YAML. A forecast-only file needs
// just the warehouse, the dates and the history.
type Scenario struct {
	WarehouseID  string           `yaml:"warehouseId"`
	Period       string           `yaml:"period"`
	ForecastDate string           `yaml:"forecastDate"`
	PlanDate     string           `yaml:"planDate"`
	History      map[string][]int `yaml:"history"`
	Workers      []ScenarioWorker `yaml:"workers"`
	ApproveBy    string           `yaml:"approveBy"`
}

// ScenarioWorker is one worker of the available pool
type ScenarioWorker struct {
	WorkerID          string             `yaml:"workerId"`
	Name              string             `yaml:"name"`
	SkillLevel        string             `yaml:"skillLevel"`
	MaxHoursPerWeek   int                `yaml:"maxHoursPerWeek"`
	FullTime          bool               `yaml:"fullTime"`
	HourlyRate        float64            `yaml:"hourlyRate"`
	ProductivityRates map[string]float64 `yaml:"productivityRates"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var scenario Scenario
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if scenario.WarehouseID == "" {
		return nil, fmt.Errorf("scenario: warehouseId is required")
	}
	if len(scenario.History) == 0 {
		return nil, fmt.Errorf("scenario: history must contain at least one category")
	}
	if scenario.Period == "" {
		scenario.Period = domain.PeriodDaily.String()
	}
	return &scenario, nil
}

func (s *Scenario) forecastPeriod() (domain.ForecastPeriod, error) {
	return domain.ParseForecastPeriod(s.Period)
}

// forecastTime returns the forecast date, defaulting to today in UTC
func (s *Scenario) forecastTime() (time.Time, error) {
	if s.ForecastDate == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	t, err := time.Parse(dateLayout, s.ForecastDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("scenario: forecastDate must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// planTime returns the plan date, defaulting to the forecast date
func (s *Scenario) planTime() (time.Time, error) {
	if s.PlanDate == "" {
		return s.forecastTime()
	}
	t, err := time.Parse(dateLayout, s.PlanDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("scenario: planDate must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func (s *Scenario) historicalData() (map[domain.WorkloadCategory][]int, error) {
	history := make(map[domain.WorkloadCategory][]int, len(s.History))
	for name, volumes := range s.History {
		category, err := domain.ParseWorkloadCategory(name)
		if err != nil {
			return nil, fmt.Errorf("scenario: history: %w", err)
		}
		history[category] = volumes
	}
	return history, nil
}

func (s *Scenario) workerPool() ([]domain.WorkerCapacity, error) {
	pool := make([]domain.WorkerCapacity, 0, len(s.Workers))
	for i, w := range s.Workers {
		skill, err := domain.ParseSkillLevel(w.SkillLevel)
		if err != nil {
			return nil, fmt.Errorf("scenario: workers[%d]: %w", i, err)
		}
		maxHours := w.MaxHoursPerWeek
		if maxHours == 0 {
			maxHours = 40
		}

		worker, err := domain.NewWorkerCapacity(w.WorkerID, w.Name, skill, maxHours, w.FullTime, w.HourlyRate)
		if err != nil {
			return nil, fmt.Errorf("scenario: workers[%d]: %w", i, err)
		}
		for name, rate := range w.ProductivityRates {
			category, err := domain.ParseWorkloadCategory(name)
			if err != nil {
				return nil, fmt.Errorf("scenario: workers[%d]: %w", i, err)
			}
			worker.SetProductivityRate(category, rate)
		}
		if err := worker.Validate(); err != nil {
			return nil, fmt.Errorf("scenario: workers[%d]: %w", i, err)
		}
		pool = append(pool, *worker)
	}
	return pool, nil
}

// workflowInput converts the scenario into a DailyPlanningWorkflow input
func (s *Scenario) workflowInput(autoApprove bool, approvedBy string) (workflows.DailyPlanningInput, error) {
	forecastDate, err := s.forecastTime()
	if err != nil {
		return workflows.DailyPlanningInput{}, err
	}
	planDate, err := s.planTime()
	if err != nil {
		return workflows.DailyPlanningInput{}, err
	}
	if _, err := s.historicalData(); err != nil {
		return workflows.DailyPlanningInput{}, err
	}
	workers, err := s.workerPool()
	if err != nil {
		return workflows.DailyPlanningInput{}, err
	}
	if approvedBy == "" {
		approvedBy = s.ApproveBy
	}

	return workflows.DailyPlanningInput{
		WarehouseID:    s.WarehouseID,
		Period:         s.Period,
		ForecastDate:   forecastDate,
		PlanDate:       planDate,
		HistoricalData: s.History,
		Workers:        workers,
		AutoApprove:    autoApprove,
		ApprovedBy:     approvedBy,
	}, nil
}
