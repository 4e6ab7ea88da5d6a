package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/internal/infrastructure/events"
	"github.com/paklog/workload-planning-service/internal/infrastructure/memory"
	"github.com/paklog/workload-planning-service/pkg/logging"
)

type simulationResult struct {
	Forecast        *application.ForecastDTO          `json:"forecast"`
	Allocation      *application.AllocationDTO        `json:"allocation"`
	Staffing        *application.StaffingBreakdownDTO `json:"staffing"`
	Recommendations *application.RecommendationsDTO   `json:"recommendations"`
	Plan            *application.PlanDTO              `json:"plan"`
	Events          map[string]int                    `json:"events"`
}

func newSimulateCmd(a *app) *cobra.Command {
	var (
		scenarioPath string
		xlsxPath     string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a planning scenario against in-memory stores",
		Long: `Forecast demand from the scenario history, draft a plan from the forecast,
staff it from the scenario worker pool and print the outcome.

When the scenario names an approver and the optimized plan is balanced the plan is approved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}

			result, err := runSimulation(cmd.Context(), scenario, a.logger)
			if err != nil {
				return err
			}

			if a.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				renderSimulation(cmd.OutOrStdout(), result)
			}

			if xlsxPath != "" {
				if err := writeRosterXLSX(xlsxPath, result); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Roster written to "+xlsxPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "f", "", "Scenario YAML file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Export the shift roster to an XLSX file")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runSimulation(ctx context.Context, scenario *Scenario, logger *logging.Logger) (*simulationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	period, err := scenario.forecastPeriod()
	if err != nil {
		return nil, err
	}
	forecastDate, err := scenario.forecastTime()
	if err != nil {
		return nil, err
	}
	planDate, err := scenario.planTime()
	if err != nil {
		return nil, err
	}
	history, err := scenario.historicalData()
	if err != nil {
		return nil, err
	}
	workers, err := scenario.workerPool()
	if err != nil {
		return nil, err
	}

	sink := events.NewMemorySink()
	service := application.NewPlanningService(
		memory.NewForecastRepository(),
		memory.NewPlanRepository(),
		events.Multi{sink, events.NewLogSink(logger)},
		logger,
	)

	forecast, err := service.GenerateForecast(ctx, application.GenerateForecastCommand{
		WarehouseID:    scenario.WarehouseID,
		Period:         period,
		ForecastDate:   forecastDate,
		HistoricalData: history,
	})
	if err != nil {
		return nil, fmt.Errorf("generate forecast: %w", err)
	}

	plan, err := service.CreatePlanFromForecast(ctx, application.CreatePlanFromForecastCommand{
		ForecastID: forecast.ForecastID,
		PlanDate:   planDate,
	})
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	allocation, err := service.OptimizeAllocation(ctx, application.OptimizeAllocationCommand{
		PlanID:  plan.PlanID,
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("optimize allocation: %w", err)
	}
	finalPlan := &allocation.Plan

	if scenario.ApproveBy != "" && finalPlan.StaffingStatus == domain.StaffingBalanced {
		finalPlan, err = service.ApprovePlan(ctx, application.ApprovePlanCommand{
			PlanID:     plan.PlanID,
			ApprovedBy: scenario.ApproveBy,
		})
		if err != nil {
			return nil, fmt.Errorf("approve plan: %w", err)
		}
	}

	staffing, err := service.GetStaffingBreakdown(ctx, application.GetStaffingBreakdownQuery{
		ForecastID: forecast.ForecastID,
		PlanID:     plan.PlanID,
	})
	if err != nil {
		return nil, fmt.Errorf("staffing breakdown: %w", err)
	}

	recommendations, err := service.GetRecommendations(ctx, application.GetRecommendationsQuery{
		WarehouseID: scenario.WarehouseID,
		Date:        planDate,
	})
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	return &simulationResult{
		Forecast:        forecast,
		Allocation:      allocation,
		Staffing:        staffing,
		Recommendations: recommendations,
		Plan:            finalPlan,
		Events:          sink.CountByType(),
	}, nil
}
